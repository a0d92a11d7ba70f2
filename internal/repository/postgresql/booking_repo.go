package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository"
)

const bookingColumns = `b.id, b.user_id, b.slot_id, b.start_time, b.end_time, b.duration, b.amount,
	b.payment_status, b.payment_id, b.refund_amount, b.status, b.vehicle_plate, b.checked_in_at,
	b.created_at, b.updated_at`

// returning clause for UPDATE ... AS b statements
const bookingReturning = ` RETURNING ` + bookingColumns

type pgBookingRepository struct {
	db *sql.DB
}

func NewPgBookingRepository(db *sql.DB) repository.BookingRepository {
	return &pgBookingRepository{db: db}
}

func bookingDest(b *domain.Booking) []any {
	return []any{
		&b.ID, &b.UserID, &b.SlotID, &b.StartTime, &b.EndTime, &b.Duration, &b.Amount,
		&b.PaymentStatus, &b.PaymentID, &b.RefundAmount, &b.Status, &b.VehiclePlate, &b.CheckedInAt,
		&b.CreatedAt, &b.UpdatedAt,
	}
}

func normalizeBooking(b *domain.Booking) {
	b.StartTime = b.StartTime.In(time.UTC)
	b.EndTime = b.EndTime.In(time.UTC)
	b.CreatedAt = b.CreatedAt.In(time.UTC)
	b.UpdatedAt = b.UpdatedAt.In(time.UTC)
	if b.CheckedInAt.Valid {
		b.CheckedInAt = null.TimeFrom(b.CheckedInAt.Time.In(time.UTC))
	}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	if err := row.Scan(bookingDest(b)...); err != nil {
		return nil, err
	}
	normalizeBooking(b)
	return b, nil
}

func (r *pgBookingRepository) queryBookings(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.%s: %w", op, err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("BookingRepository.%s (scanning row): %w", op, err)
		}
		bookings = append(bookings, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.%s (rows error): %w", op, err)
	}
	return bookings, nil
}

func (r *pgBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	query := `INSERT INTO bookings (user_id, slot_id, start_time, end_time, duration, amount,
	                payment_status, payment_id, status, vehicle_plate, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		booking.UserID, booking.SlotID, booking.StartTime, booking.EndTime, booking.Duration, booking.Amount,
		booking.PaymentStatus, booking.PaymentID, booking.Status, booking.VehiclePlate,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.Create: %w", err)
	}
	booking.CreatedAt = booking.CreatedAt.In(time.UTC)
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

func (r *pgBookingRepository) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.FindByID: %w", err)
	}
	return b, nil
}

func (r *pgBookingRepository) FindOverlappingActive(ctx context.Context, slotID int, start, end time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
	           WHERE b.slot_id = $1 AND b.status = $2
	             AND b.start_time < $3 AND b.end_time > $4
	           ORDER BY b.start_time`
	return r.queryBookings(ctx, "FindOverlappingActive", query, slotID, domain.BookingActive, end, start)
}

func (r *pgBookingRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `, s.slot_number, s.type
	           FROM bookings b JOIN parking_slots s ON s.id = b.slot_id
	           WHERE b.user_id = $1
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.FindByUserID: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		slot := &domain.SlotSummary{}
		dest := append(bookingDest(&b), &slot.SlotNumber, &slot.Type)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("BookingRepository.FindByUserID (scanning row): %w", err)
		}
		normalizeBooking(&b)
		slot.ID = b.SlotID
		b.Slot = slot
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.FindByUserID (rows error): %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepository) FindAll(ctx context.Context) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `, s.slot_number, s.type, u.name, u.email
	           FROM bookings b
	           JOIN parking_slots s ON s.id = b.slot_id
	           JOIN users u ON u.id = b.user_id
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.FindAll: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		slot := &domain.SlotSummary{}
		user := &domain.UserSummary{}
		dest := append(bookingDest(&b), &slot.SlotNumber, &slot.Type, &user.Name, &user.Email)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("BookingRepository.FindAll (scanning row): %w", err)
		}
		normalizeBooking(&b)
		slot.ID = b.SlotID
		user.ID = b.UserID
		b.Slot = slot
		b.User = user
		bookings = append(bookings, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.FindAll (rows error): %w", err)
	}
	return bookings, nil
}

func (r *pgBookingRepository) CountActiveBySlotID(ctx context.Context, slotID int) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM bookings WHERE slot_id = $1 AND status = $2`
	if err := r.db.QueryRowContext(ctx, query, slotID, domain.BookingActive).Scan(&n); err != nil {
		return 0, fmt.Errorf("BookingRepository.CountActiveBySlotID: %w", err)
	}
	return n, nil
}

func (r *pgBookingRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM bookings WHERE status = $1`
	if err := r.db.QueryRowContext(ctx, query, domain.BookingActive).Scan(&n); err != nil {
		return 0, fmt.Errorf("BookingRepository.CountActive: %w", err)
	}
	return n, nil
}

func (r *pgBookingRepository) MarkCancelled(ctx context.Context, id int, refundAmount float64) (*domain.Booking, error) {
	query := `UPDATE bookings AS b
	           SET status = $2, payment_status = $3, refund_amount = $4, updated_at = CURRENT_TIMESTAMP
	           WHERE b.id = $1 AND b.status = $5` + bookingReturning
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id,
		domain.BookingCancelled, domain.PaymentRefunded, refundAmount, domain.BookingActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.MarkCancelled: %w", err)
	}
	return b, nil
}

func (r *pgBookingRepository) MarkCheckedIn(ctx context.Context, id int, at time.Time) (*domain.Booking, error) {
	query := `UPDATE bookings AS b
	           SET checked_in_at = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE b.id = $1 AND b.status = $3` + bookingReturning
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id, at, domain.BookingActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.MarkCheckedIn: %w", err)
	}
	return b, nil
}

func (r *pgBookingRepository) UpdatePaymentStatusByPaymentID(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $1, updated_at = CURRENT_TIMESTAMP WHERE payment_id = $2`
	result, err := r.db.ExecContext(ctx, query, status, paymentID)
	if err != nil {
		return fmt.Errorf("BookingRepository.UpdatePaymentStatusByPaymentID: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("BookingRepository.UpdatePaymentStatusByPaymentID (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgBookingRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	query := `UPDATE bookings AS b
	           SET status = $1, updated_at = CURRENT_TIMESTAMP
	           WHERE b.status = $2 AND b.end_time <= $3` + bookingReturning
	return r.queryBookings(ctx, "CompleteElapsed", query, domain.BookingCompleted, domain.BookingActive, now)
}
