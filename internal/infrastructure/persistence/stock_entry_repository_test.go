package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockEntryRepository creates a GormStockEntryRepository with a
// mocked SQL connection
func newMockStockEntryRepository(t *testing.T) (*GormStockEntryRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockEntryRepository(gormDB), mock, mockDB
}

func stockEntryColumns() []string {
	return []string{
		"id", "created_at", "barcode", "name", "description",
		"quantity", "received_at", "received_by_name", "received_by_employee_id",
	}
}

func TestGormStockEntryRepository_FindByBarcode(t *testing.T) {
	t.Run("finds existing entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(stockEntryColumns()).
			AddRow(entryID, now, "4006381333931", "Widget", "Blue", int64(2), now, "Ana", "E01")

		mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE barcode = \$1`).
			WithArgs("4006381333931", 1).
			WillReturnRows(rows)

		entry, err := repo.FindByBarcode(context.Background(), "4006381333931")

		require.NoError(t, err)
		assert.Equal(t, entryID, entry.ID)
		assert.Equal(t, "Widget", entry.Name)
		assert.Equal(t, int64(2), entry.Quantity)
		assert.Equal(t, inventory.Identity{Name: "Ana", EmployeeID: "E01"}, entry.ReceivedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown barcode", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE barcode = \$1`).
			WithArgs("0000000000000", 1).
			WillReturnRows(sqlmock.NewRows(stockEntryColumns()))

		entry, err := repo.FindByBarcode(context.Background(), "0000000000000")

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps transport failures as store errors", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "stock_entries"`).
			WillReturnError(sql.ErrConnDone)

		entry, err := repo.FindByBarcode(context.Background(), "123")

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, shared.ErrStoreFailure)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockEntryRepository_CreateIfAbsent(t *testing.T) {
	newEntry := func(t *testing.T) *inventory.StockEntry {
		entry, err := inventory.NewStockEntry("4006381333931",
			inventory.NewItemFields{Name: "Widget", Description: "Blue"},
			inventory.Identity{Name: "Ana", EmployeeID: "E01"})
		require.NoError(t, err)
		return entry
	}

	t.Run("creates when barcode is free", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "stock_entries" .* ON CONFLICT \("barcode"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.CreateIfAbsent(context.Background(), newEntry(t))

		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports conflict when barcode is taken", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "stock_entries" .* ON CONFLICT \("barcode"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := repo.CreateIfAbsent(context.Background(), newEntry(t))

		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockEntryRepository_IncrementQuantity(t *testing.T) {
	t.Run("applies delta and refetches", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		now := time.Now()

		mock.ExpectExec(`UPDATE "stock_entries" SET "quantity"=quantity \+ \$1 WHERE id = \$2`).
			WithArgs(int64(1), entryID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows := sqlmock.NewRows(stockEntryColumns()).
			AddRow(entryID, now, "4006381333931", "Widget", "Blue", int64(3), now, "Ana", "E01")
		mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE id = \$1`).
			WithArgs(entryID, 1).
			WillReturnRows(rows)

		entry, err := repo.IncrementQuantity(context.Background(), entryID, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(3), entry.Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when entry vanished", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		mock.ExpectExec(`UPDATE "stock_entries" SET "quantity"=quantity \+ \$1 WHERE id = \$2`).
			WithArgs(int64(1), entryID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		entry, err := repo.IncrementQuantity(context.Background(), entryID, 1)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockEntryRepository_DecrementIfAboveOne(t *testing.T) {
	t.Run("decrements while above one", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		now := time.Now()

		mock.ExpectExec(`UPDATE "stock_entries" SET "quantity"=quantity - 1 WHERE id = \$1 AND quantity > 1`).
			WithArgs(entryID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows := sqlmock.NewRows(stockEntryColumns()).
			AddRow(entryID, now, "4006381333931", "Widget", "Blue", int64(1), now, "Ana", "E01")
		mock.ExpectQuery(`SELECT \* FROM "stock_entries" WHERE id = \$1`).
			WithArgs(entryID, 1).
			WillReturnRows(rows)

		entry, decremented, err := repo.DecrementIfAboveOne(context.Background(), entryID)

		require.NoError(t, err)
		assert.True(t, decremented)
		assert.Equal(t, int64(1), entry.Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("declines at the last unit", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()
		mock.ExpectExec(`UPDATE "stock_entries" SET "quantity"=quantity - 1 WHERE id = \$1 AND quantity > 1`).
			WithArgs(entryID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		entry, decremented, err := repo.DecrementIfAboveOne(context.Background(), entryID)

		require.NoError(t, err)
		assert.False(t, decremented)
		assert.Nil(t, entry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockEntryRepository_Retire(t *testing.T) {
	newRecord := func(t *testing.T) *inventory.DepartureRecord {
		entry, err := inventory.NewStockEntry("4006381333931",
			inventory.NewItemFields{Name: "Widget", Description: "Blue"},
			inventory.Identity{Name: "Ana", EmployeeID: "E01"})
		require.NoError(t, err)
		return inventory.NewDepartureRecord(entry, inventory.Identity{Name: "Ben", EmployeeID: "E02"})
	}

	t.Run("deletes entry and creates record in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "stock_entries" WHERE id = \$1 AND quantity = 1`).
			WithArgs(entryID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "departure_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Retire(context.Background(), entryID, newRecord(t))

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("aborts when a concurrent mutation moved the quantity", func(t *testing.T) {
		repo, mock, mockDB := newMockStockEntryRepository(t)
		defer mockDB.Close()

		entryID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "stock_entries" WHERE id = \$1 AND quantity = 1`).
			WithArgs(entryID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Retire(context.Background(), entryID, newRecord(t))

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
