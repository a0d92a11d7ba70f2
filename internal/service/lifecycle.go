package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shreyakodukula/parking/internal/repository"
)

// BookingSweeper completes elapsed bookings and keeps slot statuses in line with
// the bookings that cover the current time.
type BookingSweeper struct {
	bookingRepo repository.BookingRepository
	slotRepo    repository.ParkingSlotRepository
	notifier    *Notifier
	cache       SlotCache
	now         func() time.Time
}

func NewBookingSweeper(bookingRepo repository.BookingRepository, slotRepo repository.ParkingSlotRepository, notifier *Notifier, cache SlotCache) *BookingSweeper {
	return &BookingSweeper{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		notifier:    notifier,
		cache:       cache,
		now:         time.Now,
	}
}

func (s *BookingSweeper) Sweep(ctx context.Context) error {
	now := s.now().UTC()

	completed, err := s.bookingRepo.CompleteElapsed(ctx, now)
	if err != nil {
		return fmt.Errorf("completing elapsed bookings: %w", err)
	}
	for _, b := range completed {
		s.notifier.BookingCompleted(ctx, b)
	}

	changes, err := s.slotRepo.SyncStatuses(ctx, now)
	if err != nil {
		return fmt.Errorf("syncing slot statuses: %w", err)
	}
	for _, c := range changes {
		s.notifier.SlotStatusChanged(ctx, c)
	}

	if len(completed) > 0 || len(changes) > 0 {
		slog.Info("booking sweep", "completed", len(completed), "slot_changes", len(changes))
		s.cache.Invalidate(ctx)
	}
	return nil
}

// Run sweeps on every tick until ctx is cancelled.
func (s *BookingSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx); err != nil {
		slog.Error("booking sweep failed", "error", err)
	}
	for {
		select {
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				slog.Error("booking sweep failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("booking sweeper stopped")
			return
		}
	}
}
