package service

import (
	"context"
	"sync"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/payment"
)

type mockUserRepo struct {
	CreateFunc         func(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	FindByIDFunc       func(ctx context.Context, id int) (*domain.User, error)
	FindAllFunc        func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return m.CreateFunc(ctx, user)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.FindByUsernameFunc(ctx, username)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	return m.FindAllFunc(ctx)
}

type mockSlotRepo struct {
	CreateFunc               func(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByIDFunc             func(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindBySlotNumberFunc     func(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error)
	FindByStatusFunc         func(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error)
	FindAvailableBetweenFunc func(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error)
	UpdateFunc               func(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	DeleteFunc               func(ctx context.Context, id int) error
	CountByStatusFunc        func(ctx context.Context) (map[domain.SlotStatus]int, error)
	SyncStatusesFunc         func(ctx context.Context, now time.Time) ([]domain.SlotStatusChange, error)
}

func (m *mockSlotRepo) Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	return m.CreateFunc(ctx, slot)
}

func (m *mockSlotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockSlotRepo) FindBySlotNumber(ctx context.Context, slotNumber string) (*domain.ParkingSlot, error) {
	return m.FindBySlotNumberFunc(ctx, slotNumber)
}

func (m *mockSlotRepo) FindByStatus(ctx context.Context, status domain.SlotStatus) ([]domain.ParkingSlot, error) {
	return m.FindByStatusFunc(ctx, status)
}

func (m *mockSlotRepo) FindAvailableBetween(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error) {
	return m.FindAvailableBetweenFunc(ctx, start, end)
}

func (m *mockSlotRepo) Update(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	return m.UpdateFunc(ctx, slot)
}

func (m *mockSlotRepo) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockSlotRepo) CountByStatus(ctx context.Context) (map[domain.SlotStatus]int, error) {
	return m.CountByStatusFunc(ctx)
}

func (m *mockSlotRepo) SyncStatuses(ctx context.Context, now time.Time) ([]domain.SlotStatusChange, error) {
	return m.SyncStatusesFunc(ctx, now)
}

type mockBookingRepo struct {
	CreateFunc                         func(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	FindByIDFunc                       func(ctx context.Context, id int) (*domain.Booking, error)
	FindOverlappingActiveFunc          func(ctx context.Context, slotID int, start, end time.Time) ([]domain.Booking, error)
	FindByUserIDFunc                   func(ctx context.Context, userID int) ([]domain.Booking, error)
	FindAllFunc                        func(ctx context.Context) ([]domain.Booking, error)
	CountActiveBySlotIDFunc            func(ctx context.Context, slotID int) (int, error)
	CountActiveFunc                    func(ctx context.Context) (int, error)
	MarkCancelledFunc                  func(ctx context.Context, id int, refundAmount float64) (*domain.Booking, error)
	MarkCheckedInFunc                  func(ctx context.Context, id int, at time.Time) (*domain.Booking, error)
	UpdatePaymentStatusByPaymentIDFunc func(ctx context.Context, paymentID string, status domain.PaymentStatus) error
	CompleteElapsedFunc                func(ctx context.Context, now time.Time) ([]domain.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	return m.CreateFunc(ctx, booking)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id int) (*domain.Booking, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockBookingRepo) FindOverlappingActive(ctx context.Context, slotID int, start, end time.Time) ([]domain.Booking, error) {
	return m.FindOverlappingActiveFunc(ctx, slotID, start, end)
}

func (m *mockBookingRepo) FindByUserID(ctx context.Context, userID int) ([]domain.Booking, error) {
	return m.FindByUserIDFunc(ctx, userID)
}

func (m *mockBookingRepo) FindAll(ctx context.Context) ([]domain.Booking, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockBookingRepo) CountActiveBySlotID(ctx context.Context, slotID int) (int, error) {
	return m.CountActiveBySlotIDFunc(ctx, slotID)
}

func (m *mockBookingRepo) CountActive(ctx context.Context) (int, error) {
	return m.CountActiveFunc(ctx)
}

func (m *mockBookingRepo) MarkCancelled(ctx context.Context, id int, refundAmount float64) (*domain.Booking, error) {
	return m.MarkCancelledFunc(ctx, id, refundAmount)
}

func (m *mockBookingRepo) MarkCheckedIn(ctx context.Context, id int, at time.Time) (*domain.Booking, error) {
	return m.MarkCheckedInFunc(ctx, id, at)
}

func (m *mockBookingRepo) UpdatePaymentStatusByPaymentID(ctx context.Context, paymentID string, status domain.PaymentStatus) error {
	return m.UpdatePaymentStatusByPaymentIDFunc(ctx, paymentID, status)
}

func (m *mockBookingRepo) CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	return m.CompleteElapsedFunc(ctx, now)
}

type mockGateway struct {
	ChargeFunc func(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error)
	RefundFunc func(ctx context.Context, paymentID string, amountCents int64) (*payment.Refund, error)
}

func (m *mockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	return m.ChargeFunc(ctx, req)
}

func (m *mockGateway) Refund(ctx context.Context, paymentID string, amountCents int64) (*payment.Refund, error) {
	return m.RefundFunc(ctx, paymentID, amountCents)
}

type mockPlateReader struct {
	DetectPlateFunc func(ctx context.Context, imageBytes []byte) (*domain.PlateDetection, error)
}

func (m *mockPlateReader) DetectPlate(ctx context.Context, imageBytes []byte) (*domain.PlateDetection, error) {
	return m.DetectPlateFunc(ctx, imageBytes)
}

// passthroughCache always loads and counts invalidations.
type passthroughCache struct {
	invalidations int
}

func (c *passthroughCache) Occupancy(ctx context.Context, load func(context.Context) (*domain.OccupancyStats, error)) (*domain.OccupancyStats, error) {
	return load(ctx)
}

func (c *passthroughCache) AvailableSlots(ctx context.Context, load func(context.Context) ([]domain.ParkingSlot, error)) ([]domain.ParkingSlot, error) {
	return load(ctx)
}

func (c *passthroughCache) Invalidate(context.Context) { c.invalidations++ }

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []domain.SlotNotification
}

func (r *recordingBroadcaster) BroadcastSlotNotification(n domain.SlotNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type recordingSignage struct {
	statuses map[string]domain.SlotStatus
	err      error
}

func (r *recordingSignage) PublishSlotStatus(_ context.Context, slotNumber string, status domain.SlotStatus) error {
	if r.statuses == nil {
		r.statuses = make(map[string]domain.SlotStatus)
	}
	r.statuses[slotNumber] = status
	return r.err
}

type recordingPublisher struct {
	events []domain.BookingEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.BookingEvent) error {
	r.events = append(r.events, event)
	return r.err
}
