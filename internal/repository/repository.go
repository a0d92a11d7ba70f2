package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
}

type ParkingSlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindBySlotNumber(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error)
	FindByStatus(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error)
	// FindAvailableBetween returns slots with status available and no active booking
	// intersecting [start, end).
	FindAvailableBetween(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error)
	Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context) (map[domain.SlotStatus]int, error)
	// SyncStatuses flips non-maintenance slots between booked and available depending on
	// whether an active booking covers now. It returns the slots that changed.
	SyncStatuses(ctx context.Context, now time.Time) ([]domain.SlotStatusChange, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindByID(ctx context.Context, id int) (*domain.Booking, error)
	// FindOverlappingActive returns active bookings on slotID with start < end AND end > start.
	FindOverlappingActive(ctx context.Context, slotID int, start, end time.Time) ([]domain.Booking, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Booking, error)
	FindAll(ctx context.Context) ([]domain.Booking, error)
	CountActiveBySlotID(ctx context.Context, slotID int) (int, error)
	CountActive(ctx context.Context) (int, error)
	MarkCancelled(ctx context.Context, id int, refundAmount float64) (*domain.Booking, error)
	// MarkCheckedIn only touches an active booking; ErrNotFound otherwise.
	MarkCheckedIn(ctx context.Context, id int, at time.Time) (*domain.Booking, error)
	UpdatePaymentStatusByPaymentID(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	// CompleteElapsed marks active bookings whose end time is at or before now as completed.
	CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error)
}
