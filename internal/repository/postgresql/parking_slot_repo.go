package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository"
)

const slotColumns = `id, slot_number, status, type, hourly_rate, daily_rate, created_at, updated_at`

const slotNumberConstraint = "parking_slots_slot_number_key"

type pgParkingSlotRepository struct {
	db *sql.DB
}

func NewPgParkingSlotRepository(db *sql.DB) repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: db}
}

func scanSlot(row rowScanner) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	if err := row.Scan(&slot.ID, &slot.SlotNumber, &slot.Status, &slot.Type,
		&slot.HourlyRate, &slot.DailyRate, &slot.CreatedAt, &slot.UpdatedAt); err != nil {
		return nil, err
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) querySlots(ctx context.Context, op, query string, args ...any) ([]domain.ParkingSlot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.%s: %w", op, err)
	}
	defer rows.Close()

	slots := []domain.ParkingSlot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.%s (scanning row): %w", op, err)
		}
		slots = append(slots, *slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.%s (rows error): %w", op, err)
	}
	return slots, nil
}

func (r *pgParkingSlotRepository) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `INSERT INTO parking_slots (slot_number, status, type, hourly_rate, daily_rate, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		slot.SlotNumber, slot.Status, slot.Type, slot.HourlyRate, slot.DailyRate,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, slotNumberConstraint) {
			return nil, fmt.Errorf("%w: slot '%s' already exists", repository.ErrDuplicateEntry, slot.SlotNumber)
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Create: %w", err)
	}
	slot.CreatedAt = slot.CreatedAt.In(time.UTC)
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE id = $1`
	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.FindByID: %w", err)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindBySlotNumber(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE slot_number = $1`
	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, slotNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.FindBySlotNumber: %w", err)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindByStatus(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE status = $1 ORDER BY slot_number`
	return r.querySlots(ctx, "FindByStatus", query, status)
}

// FindAvailableBetween returns slots marked available with no active booking that
// intersects [start, end).
func (r *pgParkingSlotRepository) FindAvailableBetween(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots s
	           WHERE s.status = $1
	             AND NOT EXISTS (
	                 SELECT 1 FROM bookings b
	                 WHERE b.slot_id = s.id AND b.status = $2
	                   AND b.start_time < $4 AND b.end_time > $3)
	           ORDER BY s.slot_number`
	return r.querySlots(ctx, "FindAvailableBetween", query, domain.SlotAvailable, domain.BookingActive, start, end)
}

func (r *pgParkingSlotRepository) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	query := `UPDATE parking_slots
               SET slot_number = $1, status = $2, type = $3, hourly_rate = $4, daily_rate = $5,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		slot.SlotNumber, slot.Status, slot.Type, slot.HourlyRate, slot.DailyRate, slot.ID,
	).Scan(&slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if uniqueViolation(err, slotNumberConstraint) {
			return nil, fmt.Errorf("%w: slot number '%s' already in use", repository.ErrDuplicateEntry, slot.SlotNumber)
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Update: %w", err)
	}
	slot.UpdatedAt = slot.UpdatedAt.In(time.UTC)
	return slot, nil
}

func (r *pgParkingSlotRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM parking_slots WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSlotRepository) CountByStatus(ctx context.Context) (map[domain.SlotStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM parking_slots GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.CountByStatus: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SlotStatus]int)
	for rows.Next() {
		var status domain.SlotStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.CountByStatus (scanning row): %w", err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.CountByStatus (rows error): %w", err)
	}
	return counts, nil
}

func (r *pgParkingSlotRepository) SyncStatuses(ctx context.Context, now time.Time) ([]domain.SlotStatusChange, error) {
	query := `WITH desired AS (
	               SELECT s.id,
	                      CASE WHEN EXISTS (
	                          SELECT 1 FROM bookings b
	                          WHERE b.slot_id = s.id AND b.status = $2
	                            AND b.start_time <= $1 AND b.end_time > $1)
	                      THEN $3::text ELSE $4::text END AS status
	               FROM parking_slots s
	               WHERE s.status <> $5)
	           UPDATE parking_slots p
	           SET status = d.status, updated_at = CURRENT_TIMESTAMP
	           FROM desired d
	           WHERE p.id = d.id AND p.status <> d.status
	           RETURNING p.id, p.slot_number, p.status`
	rows, err := r.db.QueryContext(ctx, query, now, domain.BookingActive,
		domain.SlotBooked, domain.SlotAvailable, domain.SlotMaintenance)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.SyncStatuses: %w", err)
	}
	defer rows.Close()

	var changes []domain.SlotStatusChange
	for rows.Next() {
		var c domain.SlotStatusChange
		if err := rows.Scan(&c.SlotID, &c.SlotNumber, &c.Status); err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.SyncStatuses (scanning row): %w", err)
		}
		changes = append(changes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.SyncStatuses (rows error): %w", err)
	}
	return changes, nil
}
