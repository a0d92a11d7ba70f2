package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var slotCols = []string{"id", "slot_number", "status", "type", "hourly_rate", "daily_rate", "created_at", "updated_at"}

func TestSlotRepoCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)

	mock.ExpectQuery("INSERT INTO parking_slots").
		WithArgs("A1", "available", "standard", 5.0, 30.0).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: slotNumberConstraint})

	_, err := repo.Create(context.Background(), &domain.ParkingSlot{
		SlotNumber: "A1", Status: domain.SlotAvailable, Type: domain.SlotStandard, HourlyRate: 5, DailyRate: 30,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepoFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM parking_slots WHERE id = \\$1").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepoFindAvailableBetween(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	now := time.Now()

	mock.ExpectQuery(`WHERE s\.status = \$1\s+AND NOT EXISTS`).
		WithArgs("available", "active", start, end).
		WillReturnRows(sqlmock.NewRows(slotCols).
			AddRow(1, "A1", "available", "standard", 5.0, 30.0, now, now).
			AddRow(3, "A3", "available", "electric", 7.5, 45.0, now, now))

	slots, err := repo.FindAvailableBetween(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for _, s := range slots {
		assert.Equal(t, domain.SlotAvailable, s.Status)
	}
	assert.Equal(t, domain.SlotElectric, slots[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepoDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)

	mock.ExpectExec("DELETE FROM parking_slots").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepoCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("available", 3).
			AddRow("maintenance", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.SlotAvailable])
	assert.Equal(t, 1, counts[domain.SlotMaintenance])
	assert.Equal(t, 0, counts[domain.SlotBooked])
}

func TestSlotRepoSyncStatuses(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgParkingSlotRepository(db)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE parking_slots p").
		WithArgs(now, "active", "booked", "available", "maintenance").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slot_number", "status"}).AddRow(4, "B2", "booked"))

	changes, err := repo.SyncStatuses(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []domain.SlotStatusChange{{SlotID: 4, SlotNumber: "B2", Status: domain.SlotBooked}}, changes)
}

func TestUniqueViolation(t *testing.T) {
	assert.True(t, uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "x"}, ""))
	assert.False(t, uniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "x"}, "y"))
	assert.False(t, uniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, uniqueViolation(sql.ErrNoRows, ""))

	assert.True(t, uniqueViolation(&pq.Error{Code: "23505", Constraint: slotNumberConstraint}, slotNumberConstraint))
	assert.False(t, uniqueViolation(&pq.Error{Code: "23505", Constraint: "x"}, slotNumberConstraint))
	assert.True(t, uniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), ""))
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{"": "pgx", "pgx": "pgx", "postgres": "postgres"} {
		got, err := driverName(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverName("mysql")
	assert.Error(t, err)
}
