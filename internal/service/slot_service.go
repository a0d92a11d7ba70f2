package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository"
)

type SlotService struct {
	slotRepo repository.ParkingSlotRepository
	cache    SlotCache
}

func NewSlotService(slotRepo repository.ParkingSlotRepository, cache SlotCache) *SlotService {
	return &SlotService{slotRepo: slotRepo, cache: cache}
}

func (s *SlotService) ListAvailable(ctx context.Context) ([]domain.ParkingSlot, error) {
	return s.cache.AvailableSlots(ctx, func(ctx context.Context) ([]domain.ParkingSlot, error) {
		slots, err := s.slotRepo.FindByStatus(ctx, domain.SlotAvailable)
		if err != nil {
			return nil, err
		}
		if slots == nil {
			slots = []domain.ParkingSlot{}
		}
		return slots, nil
	})
}

// AvailableBetween lists slots free for the whole window.
func (s *SlotService) AvailableBetween(ctx context.Context, start, end time.Time) ([]domain.ParkingSlot, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	slots, err := s.slotRepo.FindAvailableBetween(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("finding available slots: %w", err)
	}
	if slots == nil {
		slots = []domain.ParkingSlot{}
	}
	return slots, nil
}

func (s *SlotService) GetSlot(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}
