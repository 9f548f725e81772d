package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockEntry(t *testing.T) {
	receivedBy := Identity{Name: "Ana", EmployeeID: "E01"}

	t.Run("creates entry with quantity 1", func(t *testing.T) {
		entry, err := NewStockEntry("4006381333931", NewItemFields{Name: "Widget", Description: "Blue"}, receivedBy)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, "4006381333931", entry.Barcode)
		assert.Equal(t, "Widget", entry.Name)
		assert.Equal(t, "Blue", entry.Description)
		assert.Equal(t, int64(1), entry.Quantity)
		assert.Equal(t, receivedBy, entry.ReceivedBy)
		assert.WithinDuration(t, time.Now(), entry.ReceivedAt, time.Second)
	})

	t.Run("trims the item name", func(t *testing.T) {
		entry, err := NewStockEntry("4006381333931", NewItemFields{Name: "  Widget "}, receivedBy)

		require.NoError(t, err)
		assert.Equal(t, "Widget", entry.Name)
	})

	t.Run("fails with blank name", func(t *testing.T) {
		entry, err := NewStockEntry("4006381333931", NewItemFields{Name: "   "}, receivedBy)

		require.Error(t, err)
		assert.Nil(t, entry)
		assert.Contains(t, err.Error(), "name")
	})

	t.Run("fails with blank barcode", func(t *testing.T) {
		entry, err := NewStockEntry("  ", NewItemFields{Name: "Widget"}, receivedBy)

		require.Error(t, err)
		assert.Nil(t, entry)
	})
}

func TestNewItemFields_Validate(t *testing.T) {
	t.Run("accepts a non-blank name", func(t *testing.T) {
		assert.NoError(t, NewItemFields{Name: "Widget"}.Validate())
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		assert.Error(t, NewItemFields{}.Validate())
	})
}

func TestStockEntry_IsLastUnit(t *testing.T) {
	entry, err := NewStockEntry("123", NewItemFields{Name: "Widget"}, Identity{Name: "Ana", EmployeeID: "E01"})
	require.NoError(t, err)

	assert.True(t, entry.IsLastUnit())

	entry.Quantity = 2
	assert.False(t, entry.IsLastUnit())
}

func TestNewDepartureRecord(t *testing.T) {
	receivedBy := Identity{Name: "Ana", EmployeeID: "E01"}
	departedBy := Identity{Name: "Ben", EmployeeID: "E02"}

	entry, err := NewStockEntry("4006381333931", NewItemFields{Name: "Widget", Description: "Blue"}, receivedBy)
	require.NoError(t, err)

	record := NewDepartureRecord(entry, departedBy)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.NotEqual(t, entry.ID, record.ID)
	assert.Equal(t, entry.Barcode, record.Barcode)
	assert.Equal(t, entry.Name, record.Name)
	assert.Equal(t, entry.Description, record.Description)
	assert.Equal(t, entry.ReceivedAt, record.ReceivedAt)
	assert.Equal(t, receivedBy, record.ReceivedBy)
	assert.Equal(t, departedBy, record.DepartedBy)
	assert.WithinDuration(t, time.Now(), record.DepartedAt, time.Second)
}

func TestIdentity_IsZero(t *testing.T) {
	assert.True(t, Identity{}.IsZero())
	assert.True(t, Identity{Name: " "}.IsZero())
	assert.False(t, Identity{Name: "Ana", EmployeeID: "E01"}.IsZero())
}
