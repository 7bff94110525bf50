// AngelaMos | 2026
// core_test.go

package core_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

func TestTranslatePgError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantIs     error
		wantStatus int
	}{
		{
			name:       "serialization failure",
			err:        &pgconn.PgError{Code: "40001"},
			wantIs:     core.ErrSerialization,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "deadlock",
			err:        &pgconn.PgError{Code: "40P01"},
			wantIs:     core.ErrSerialization,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unique violation",
			err:        &pgconn.PgError{Code: "23505", ConstraintName: "flag_interests_user_flag_key"},
			wantIs:     core.ErrDuplicateKey,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "string too long",
			err:        fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22001"}),
			wantIs:     core.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.TranslatePgError(tt.err)
			assert.ErrorIs(t, got, tt.wantIs)

			var pgErr *pgconn.PgError
			assert.True(t, errors.As(got, &pgErr), "driver error kept in chain")

			assert.Equal(t, tt.wantStatus, core.ToAppError(got).StatusCode)
		})
	}

	t.Run("unique violation keeps constraint", func(t *testing.T) {
		got := core.TranslatePgError(&pgconn.PgError{Code: "23505", ConstraintName: "auctions_one_active_idx"})

		var uv *core.UniqueViolation
		require.True(t, errors.As(got, &uv))
		assert.Equal(t, "auctions_one_active_idx", uv.Constraint)
	})

	t.Run("other codes pass through", func(t *testing.T) {
		in := &pgconn.PgError{Code: "23503"}
		assert.Same(t, in, core.TranslatePgError(in))
	})

	t.Run("already translated", func(t *testing.T) {
		in := fmt.Errorf("swap: %w", core.ErrSerialization)
		assert.Equal(t, in, core.TranslatePgError(in))
	})
}

func TestCheckMoney(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		positive bool
		wantErr  bool
	}{
		{name: "zero allowed", value: "0"},
		{name: "zero when positive required", value: "0", positive: true, wantErr: true},
		{name: "negative", value: "-0.01", wantErr: true},
		{name: "eight decimals", value: "0.00000001", positive: true},
		{name: "nine decimals", value: "0.000000001", wantErr: true},
		{name: "largest value", value: "9999999999.99999999"},
		{name: "ten digit integer part", value: "10000000000", wantErr: true},
		{name: "exactly at the bound", value: "1e10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.CheckMoney("price", decimal.RequireFromString(tt.value), tt.positive)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Equal(t, http.StatusBadRequest, core.ToAppError(err).StatusCode)
		})
	}
}

func TestCanonicalWallet(t *testing.T) {
	const want = "0xabcdef0123456789abcdef0123456789abcdef01"

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "lowercase", in: want},
		{name: "mixed case", in: "0xABCDEF0123456789abcdef0123456789ABCDEF01"},
		{name: "surrounding spaces", in: "  " + want + "\t"},
		{name: "missing prefix", in: want[2:], wantErr: true},
		{name: "too short", in: want[:40], wantErr: true},
		{name: "not hex", in: "0xzzcdef0123456789abcdef0123456789abcdef01", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.CanonicalWallet(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"not found", fmt.Errorf("get flag: %w", core.ErrNotFound), "NOT_FOUND", http.StatusNotFound},
		{"conflict state", core.ConflictStateError("taken"), "CONFLICT_STATE", http.StatusBadRequest},
		{"serialization", core.ErrSerialization, "CONFLICT", http.StatusConflict},
		{"upstream", fmt.Errorf("nats: %w", core.ErrUpstream), "UPSTREAM", http.StatusBadGateway},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := core.ToAppError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.StatusCode)
		})
	}
}

func TestQueryParams(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		tests := []struct {
			query   string
			want    int
			wantErr bool
		}{
			{query: "", want: 10},
			{query: "limit=25", want: 25},
			{query: "limit=-3", want: -3},
			{query: "limit=abc", wantErr: true},
			{query: "limit=2.5", wantErr: true},
		}

		for _, tt := range tests {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := core.QueryInt(r, "limit", 10)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput, tt.query)
				continue
			}
			require.NoError(t, err, tt.query)
			assert.Equal(t, tt.want, got, tt.query)
		}
	})

	t.Run("bool", func(t *testing.T) {
		tests := []struct {
			query   string
			want    bool
			wantErr bool
		}{
			{query: "", want: true},
			{query: "active_only=false", want: false},
			{query: "active_only=0", want: false},
			{query: "active_only=TRUE", want: true},
			{query: "active_only=yes", wantErr: true},
		}

		for _, tt := range tests {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := core.QueryBool(r, "active_only", true)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput, tt.query)
				continue
			}
			require.NoError(t, err, tt.query)
			assert.Equal(t, tt.want, got, tt.query)
		}
	})
}
