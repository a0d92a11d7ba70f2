package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/messaging"
	"github.com/shreyakodukula/parking/internal/payment"
	"github.com/shreyakodukula/parking/internal/repository"
)

type PlateReader interface {
	DetectPlate(ctx context.Context, imageBytes []byte) (*domain.PlateDetection, error)
}

type BookingService struct {
	bookingRepo   repository.BookingRepository
	slotRepo      repository.ParkingSlotRepository
	gateway       payment.Gateway
	plateReader   PlateReader
	notifier      *Notifier
	cache         SlotCache
	currency      string
	refundPercent int64
	now           func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	slotRepo repository.ParkingSlotRepository,
	gateway payment.Gateway,
	plateReader PlateReader,
	notifier *Notifier,
	cache SlotCache,
	currency string,
	refundPercent int64,
) *BookingService {
	return &BookingService{
		bookingRepo:   bookingRepo,
		slotRepo:      slotRepo,
		gateway:       gateway,
		plateReader:   plateReader,
		notifier:      notifier,
		cache:         cache,
		currency:      currency,
		refundPercent: refundPercent,
		now:           time.Now,
	}
}

// CreateBooking checks the window against active bookings on the slot, prices it,
// charges the card and stores the paid booking. The overlap check and the insert
// are not atomic.
func (s *BookingService) CreateBooking(ctx context.Context, userID int, dto domain.CreateBookingDTO) (*domain.Booking, error) {
	start, end := dto.StartTime.UTC(), dto.EndTime.UTC()
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	slot, err := s.findSlot(ctx, dto.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == domain.SlotMaintenance {
		return nil, ErrSlotUnavailable
	}

	overlapping, err := s.bookingRepo.FindOverlappingActive(ctx, slot.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("checking overlapping bookings: %w", err)
	}
	if len(overlapping) > 0 {
		slog.Info("booking rejected, window taken", "slot_id", slot.ID, "conflicts", len(overlapping))
		return nil, ErrSlotAlreadyBooked
	}

	hours, amount := CalculateAmount(slot, start, end)
	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		AmountCents:     ChargeCents(amount),
		Currency:        s.currency,
		PaymentMethodID: dto.PaymentMethodID,
		Description:     fmt.Sprintf("Parking slot %s, %s to %s", slot.SlotNumber, start.Format(time.RFC3339), end.Format(time.RFC3339)),
		Metadata: map[string]string{
			"userId": strconv.Itoa(userID),
			"slotId": strconv.Itoa(slot.ID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("charging booking: %w", err)
	}

	plate := domain.NormalizePlate(dto.VehiclePlate)
	booking := &domain.Booking{
		UserID:        userID,
		SlotID:        slot.ID,
		StartTime:     start,
		EndTime:       end,
		Duration:      hours,
		Amount:        amount,
		PaymentStatus: domain.PaymentPaid,
		PaymentID:     charge.ID,
		Status:        domain.BookingActive,
		VehiclePlate:  null.NewString(plate, plate != ""),
	}
	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		s.refundOrphanedCharge(ctx, charge)
		return nil, fmt.Errorf("saving booking: %w", err)
	}
	created.Slot = &domain.SlotSummary{ID: slot.ID, SlotNumber: slot.SlotNumber, Type: slot.Type}

	slog.Info("booking created", "booking_id", created.ID, "slot_id", slot.ID, "user_id", userID, "amount", amount)
	s.cache.Invalidate(ctx)
	s.notifier.BookingCreated(ctx, *created, slot.SlotNumber)
	return created, nil
}

// refundOrphanedCharge returns the full charge when the booking row could not be written.
func (s *BookingService) refundOrphanedCharge(ctx context.Context, charge *payment.Charge) {
	if _, err := s.gateway.Refund(ctx, charge.ID, charge.AmountCents); err != nil {
		slog.Error("refund of unsaved booking charge failed", "payment_id", charge.ID, "error", err)
		return
	}
	slog.Warn("refunded charge for unsaved booking", "payment_id", charge.ID)
}

// CancelBooking refunds the configured share of the amount and marks the booking cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID int) (*domain.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != domain.BookingActive {
		return nil, ErrBookingNotActive
	}

	refundCents := RefundCents(booking.Amount, s.refundPercent)
	if refundCents > 0 && booking.PaymentID != "" {
		if _, err := s.gateway.Refund(ctx, booking.PaymentID, refundCents); err != nil {
			return nil, fmt.Errorf("refunding booking %d: %w", booking.ID, err)
		}
	}

	cancelled, err := s.bookingRepo.MarkCancelled(ctx, booking.ID, float64(refundCents)/100)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// cancelled or completed between the read and the update
			return nil, ErrBookingNotActive
		}
		return nil, fmt.Errorf("cancelling booking %d: %w", booking.ID, err)
	}

	slog.Info("booking cancelled", "booking_id", cancelled.ID, "refund_cents", refundCents)
	s.cache.Invalidate(ctx)
	slotNumber := ""
	if slot, err := s.slotRepo.FindByID(ctx, cancelled.SlotID); err == nil {
		slotNumber = slot.SlotNumber
	}
	s.notifier.BookingCancelled(ctx, *cancelled, slotNumber)
	return cancelled, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int) ([]domain.Booking, error) {
	return s.bookingRepo.FindByUserID(ctx, userID)
}

// CheckIn reads the plate from a camera image and records arrival when it matches the booking.
func (s *BookingService) CheckIn(ctx context.Context, userID, bookingID int, dto domain.CheckInDTO) (*domain.CheckInResultDTO, error) {
	if s.plateReader == nil {
		return nil, ErrCheckInUnavailable
	}
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status != domain.BookingActive {
		return nil, ErrBookingNotActive
	}
	if !booking.VehiclePlate.Valid || booking.VehiclePlate.String == "" {
		return nil, ErrNoVehiclePlate
	}

	image, err := base64.StdEncoding.DecodeString(dto.ImageBase64)
	if err != nil {
		return nil, ErrInvalidImage
	}
	detection, err := s.plateReader.DetectPlate(ctx, image)
	if err != nil {
		return nil, err
	}
	if detection.Plate != domain.NormalizePlate(booking.VehiclePlate.String) {
		slog.Info("check-in plate mismatch", "booking_id", booking.ID, "detected", detection.Plate)
		return nil, ErrPlateMismatch
	}

	updated, err := s.bookingRepo.MarkCheckedIn(ctx, booking.ID, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// cancelled or completed while the image was being read
			return nil, ErrBookingNotActive
		}
		return nil, fmt.Errorf("recording check-in for booking %d: %w", booking.ID, err)
	}
	return &domain.CheckInResultDTO{
		Booking:       updated,
		DetectedPlate: detection.Plate,
		Confidence:    detection.Confidence,
	}, nil
}

// HandlePaymentNotification applies a processor event delivered through the queue.
// Events for unknown payments are acknowledged.
func (s *BookingService) HandlePaymentNotification(ctx context.Context, body string) error {
	n, err := payment.ParseNotification([]byte(body))
	if errors.Is(err, payment.ErrMalformedNotification) {
		return fmt.Errorf("%w: %v", messaging.ErrMalformedMessage, err)
	}
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	err = s.bookingRepo.UpdatePaymentStatusByPaymentID(ctx, n.PaymentID, n.Status)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Warn("payment notification for unknown booking", "event_id", n.EventID, "payment_id", n.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("applying %s: %w", n.EventType, err)
	}
	slog.Info("payment status updated", "event_id", n.EventID, "payment_id", n.PaymentID, "status", n.Status)
	return nil
}

func (s *BookingService) findSlot(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("loading slot %d: %w", id, err)
	}
	return slot, nil
}

func (s *BookingService) findBooking(ctx context.Context, id int) (*domain.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("loading booking %d: %w", id, err)
	}
	return booking, nil
}
