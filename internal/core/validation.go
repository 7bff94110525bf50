// AngelaMos | 2026
// validation.go

package core

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for every price,
// bid and buyout (NUMERIC(18,8)).
const MoneyScale int32 = 8

var maxMoney = decimal.New(1, 10)

var walletValidator = validator.New()

func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "eth_addr":
			msgs = append(msgs, fmt.Sprintf(
				"%s must be a 0x-prefixed 40 hex character wallet address",
				fe.Field(),
			))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf(
				"%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf(
				"%s must be at least %s", fe.Field(), fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf(
				"%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}

	return strings.Join(msgs, "; ")
}

// CanonicalWallet validates a wallet fingerprint and returns its lowercase
// form, the only form used for lookups.
func CanonicalWallet(wallet string) (string, error) {
	wallet = strings.TrimSpace(wallet)
	if err := walletValidator.Var(wallet, "required,eth_addr"); err != nil {
		return "", InvalidError("wallet_address must be a 0x-prefixed 40 hex character address")
	}
	return strings.ToLower(wallet), nil
}

func ParseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, InvalidError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// CheckMoney enforces the fixed-point contract on a price-like value.
func CheckMoney(field string, d decimal.Decimal, positive bool) error {
	if d.IsNegative() {
		return InvalidError(fmt.Sprintf("%s must not be negative", field))
	}
	if positive && !d.IsPositive() {
		return InvalidError(fmt.Sprintf("%s must be greater than zero", field))
	}
	if !d.Equal(d.Truncate(MoneyScale)) {
		return InvalidError(fmt.Sprintf(
			"%s must have at most %d fractional digits", field, MoneyScale))
	}
	if d.GreaterThanOrEqual(maxMoney) {
		return InvalidError(fmt.Sprintf("%s is too large", field))
	}
	return nil
}

func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

func FormatNullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := FormatMoney(d.Decimal)
	return &s
}
