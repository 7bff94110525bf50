// AngelaMos | 2026
// memory_test.go

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

func TestMemoryContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemory(clock.NewFake(contractNow))
	})
}

func TestMemoryViewIsReadOnly(t *testing.T) {
	s := NewMemory(clock.NewFake(contractNow))
	ctx := context.Background()

	err := s.View(ctx, func(tx Tx) error {
		_, err := tx.EnsureUser(ctx, walletA)
		return err
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestMemoryForeignKeys(t *testing.T) {
	s := NewMemory(clock.NewFake(contractNow))
	ctx := context.Background()

	err := s.Update(ctx, func(tx Tx) error {
		return tx.CreateInterest(ctx, &FlagInterest{UserID: 1, FlagID: 2})
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, InitialInterval: time.Millisecond}

	t.Run("retries serialization failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func() error {
			calls++
			if calls < 3 {
				return core.ErrSerialization
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhaustion surfaces as conflict", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func() error {
			calls++
			return core.ErrSerialization
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.Equal(t, "CONFLICT", core.ToAppError(err).Code)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Retry(context.Background(), policy, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestMigrateURL(t *testing.T) {
	got, err := migrateURL("postgres://u:p@localhost:5432/db?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", got)

	_, err = migrateURL("mysql://localhost/db")
	assert.Error(t, err)
}
