package identity

import (
	"testing"
	"time"

	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperator(t *testing.T) {
	t.Run("creates operator with hashed password", func(t *testing.T) {
		op, err := NewOperator("Ana@Example.com", "s3cret-pass", "Ana Kovas", "E01")

		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", op.Email)
		assert.Equal(t, "Ana Kovas", op.FullName)
		assert.Equal(t, "E01", op.EmployeeID)
		assert.NotEqual(t, "s3cret-pass", op.PasswordHash)
		assert.True(t, op.VerifyPassword("s3cret-pass"))
		assert.False(t, op.VerifyPassword("wrong"))
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewOperator("not-an-email", "s3cret-pass", "Ana", "E01")
		require.Error(t, err)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewOperator("ana@example.com", "short", "Ana", "E01")
		require.Error(t, err)
	})

	t.Run("rejects blank full name", func(t *testing.T) {
		_, err := NewOperator("ana@example.com", "s3cret-pass", "  ", "E01")
		require.Error(t, err)
	})

	t.Run("rejects blank employee id", func(t *testing.T) {
		_, err := NewOperator("ana@example.com", "s3cret-pass", "Ana", "")
		require.Error(t, err)
	})
}

func TestOperator_Identity(t *testing.T) {
	op, err := NewOperator("ana@example.com", "s3cret-pass", "Ana Kovas", "E01")
	require.NoError(t, err)

	assert.Equal(t, inventory.Identity{Name: "Ana Kovas", EmployeeID: "E01"}, op.Identity())
}

func TestOperator_RecordLogin(t *testing.T) {
	op, err := NewOperator("ana@example.com", "s3cret-pass", "Ana Kovas", "E01")
	require.NoError(t, err)
	require.Nil(t, op.LastLoginAt)

	now := time.Now()
	op.RecordLogin(now)

	require.NotNil(t, op.LastLoginAt)
	assert.Equal(t, now, *op.LastLoginAt)
}
