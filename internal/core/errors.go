// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every failure surfaced by the services unwraps to one of these.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflictState       = errors.New("conflicting state")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotOwner            = errors.New("not owner")
	ErrActiveAuctionExists = errors.New("active auction exists")
	ErrNotEnded            = errors.New("auction not ended")
	ErrConflict            = errors.New("transaction conflict")
	ErrUpstream            = errors.New("upstream failure")
)

// Store level failures, translated by services into the kinds above.
var (
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrSerialization = errors.New("serialization failure")
)

type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message, code string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		"NOT_FOUND",
		http.StatusNotFound,
	)
}

func InvalidError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, "INVALID", http.StatusBadRequest)
}

func ConflictStateError(message string) *AppError {
	return NewAppError(
		ErrConflictState,
		message,
		"CONFLICT_STATE",
		http.StatusBadRequest,
	)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, "FORBIDDEN", http.StatusForbidden)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(
		ErrUnauthorized,
		message,
		"UNAUTHORIZED",
		http.StatusUnauthorized,
	)
}

func NotOwnerError(message string) *AppError {
	return NewAppError(ErrNotOwner, message, "NOT_OWNER", http.StatusBadRequest)
}

func ActiveAuctionExistsError() *AppError {
	return NewAppError(
		ErrActiveAuctionExists,
		"there is already an active auction for this flag",
		"ACTIVE_AUCTION_EXISTS",
		http.StatusBadRequest,
	)
}

func NotEndedError() *AppError {
	return NewAppError(
		ErrNotEnded,
		"auction has not ended yet",
		"NOT_ENDED",
		http.StatusBadRequest,
	)
}

func ConflictError() *AppError {
	return NewAppError(
		ErrConflict,
		"concurrent update conflict, retry the request",
		"CONFLICT",
		http.StatusConflict,
	)
}

// ToAppError resolves any error into the AppError that describes it on the
// wire. Unknown errors become a 500 that does not leak the cause.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFoundError("resource")
	case errors.Is(err, ErrInvalidInput):
		return InvalidError(err.Error())
	case errors.Is(err, ErrConflictState):
		return ConflictStateError(err.Error())
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("insufficient permissions")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("authentication required")
	case errors.Is(err, ErrNotOwner):
		return NotOwnerError("you must own this flag")
	case errors.Is(err, ErrActiveAuctionExists):
		return ActiveAuctionExistsError()
	case errors.Is(err, ErrNotEnded):
		return NotEndedError()
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSerialization):
		return ConflictError()
	case errors.Is(err, ErrUpstream):
		return NewAppError(
			ErrUpstream,
			"upstream service failure",
			"UPSTREAM",
			http.StatusBadGateway,
		)
	}

	return NewAppError(
		err,
		"internal server error",
		"INTERNAL_ERROR",
		http.StatusInternalServerError,
	)
}
