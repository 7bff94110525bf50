// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body into dst and validates it. Every failure is
// an InvalidError. An empty body decodes as an empty object so requests
// with only optional fields may omit it.
func DecodeJSON(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
	v *validator.Validate,
) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return InvalidError("invalid request body")
	}

	if err := v.Struct(dst); err != nil {
		return InvalidError(FormatValidationError(err))
	}

	return nil
}

// PathID parses a positive integer chi URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	return ParseID(chi.URLParam(r, name), name)
}

// QueryInt parses an optional integer query parameter. A missing value
// yields defaultVal and a malformed one is an InvalidError.
func QueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal, nil
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, InvalidError(fmt.Sprintf("%s must be an integer", key))
	}

	return parsed, nil
}

// QueryBool parses an optional boolean query parameter in any form
// strconv.ParseBool accepts.
func QueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal, nil
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, InvalidError(fmt.Sprintf("%s must be a boolean", key))
	}

	return parsed, nil
}
