package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository"
)

type AdminService struct {
	userRepo    repository.UserRepository
	slotRepo    repository.ParkingSlotRepository
	bookingRepo repository.BookingRepository
	notifier    *Notifier
	cache       SlotCache
}

func NewAdminService(
	userRepo repository.UserRepository,
	slotRepo repository.ParkingSlotRepository,
	bookingRepo repository.BookingRepository,
	notifier *Notifier,
	cache SlotCache,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		cache:       cache,
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func (s *AdminService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookingRepo.FindAll(ctx)
}

func (s *AdminService) Occupancy(ctx context.Context) (*domain.OccupancyStats, error) {
	return s.cache.Occupancy(ctx, s.loadOccupancy)
}

func (s *AdminService) loadOccupancy(ctx context.Context) (*domain.OccupancyStats, error) {
	counts, err := s.slotRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting slots: %w", err)
	}
	active, err := s.bookingRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting active bookings: %w", err)
	}

	stats := &domain.OccupancyStats{
		AvailableSlots:   counts[domain.SlotAvailable],
		BookedSlots:      counts[domain.SlotBooked],
		MaintenanceSlots: counts[domain.SlotMaintenance],
		ActiveBookings:   active,
	}
	for _, n := range counts {
		stats.TotalSlots += n
	}
	stats.ComputeRate()
	return stats, nil
}

func (s *AdminService) CreateSlot(ctx context.Context, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{
		SlotNumber: dto.SlotNumber,
		Type:       dto.Type,
		Status:     domain.SlotAvailable,
		HourlyRate: domain.DefaultHourlyRate,
		DailyRate:  domain.DefaultDailyRate,
	}
	applySlotDTO(slot, dto)

	created, err := s.slotRepo.Create(ctx, slot)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrDuplicateSlotNumber
		}
		return nil, fmt.Errorf("creating slot: %w", err)
	}
	slog.Info("slot created", "slot_id", created.ID, "slot_number", created.SlotNumber)
	s.cache.Invalidate(ctx)
	s.notifier.SlotStatusChanged(ctx, domain.SlotStatusChange{SlotID: created.ID, SlotNumber: created.SlotNumber, Status: created.Status})
	return created, nil
}

func (s *AdminService) UpdateSlot(ctx context.Context, id int, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("loading slot %d: %w", id, err)
	}
	previousStatus := slot.Status

	if dto.SlotNumber != slot.SlotNumber {
		existing, err := s.slotRepo.FindBySlotNumber(ctx, dto.SlotNumber)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("checking slot number: %w", err)
		}
		if existing != nil && existing.ID != slot.ID {
			return nil, ErrDuplicateSlotNumber
		}
		slot.SlotNumber = dto.SlotNumber
	}
	slot.Type = dto.Type
	applySlotDTO(slot, dto)

	updated, err := s.slotRepo.Update(ctx, slot)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrDuplicateSlotNumber
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("updating slot %d: %w", id, err)
	}
	s.cache.Invalidate(ctx)
	if updated.Status != previousStatus {
		s.notifier.SlotStatusChanged(ctx, domain.SlotStatusChange{SlotID: updated.ID, SlotNumber: updated.SlotNumber, Status: updated.Status})
	}
	return updated, nil
}

// DeleteSlot refuses while the slot still has active bookings.
func (s *AdminService) DeleteSlot(ctx context.Context, id int) error {
	if _, err := s.slotRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("loading slot %d: %w", id, err)
	}
	active, err := s.bookingRepo.CountActiveBySlotID(ctx, id)
	if err != nil {
		return fmt.Errorf("counting bookings for slot %d: %w", id, err)
	}
	if active > 0 {
		return ErrSlotHasActiveBookings
	}
	if err := s.slotRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("deleting slot %d: %w", id, err)
	}
	slog.Info("slot deleted", "slot_id", id)
	s.cache.Invalidate(ctx)
	return nil
}

func applySlotDTO(slot *domain.ParkingSlot, dto domain.ParkingSlotDTO) {
	if dto.Status != "" {
		slot.Status = domain.SlotStatus(dto.Status)
	}
	if dto.HourlyRate != nil {
		slot.HourlyRate = *dto.HourlyRate
	}
	if dto.DailyRate != nil {
		slot.DailyRate = *dto.DailyRate
	}
}
