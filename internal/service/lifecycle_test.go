package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyakodukula/parking/internal/domain"
)

func TestSweepCompletesBookingsAndSyncsSlots(t *testing.T) {
	now := base.Add(6 * time.Hour)
	bookings := &mockBookingRepo{CompleteElapsedFunc: func(_ context.Context, at time.Time) ([]domain.Booking, error) {
		assert.Equal(t, now, at)
		return []domain.Booking{{ID: 3, SlotID: 1, Status: domain.BookingCompleted}}, nil
	}}
	slots := &mockSlotRepo{SyncStatusesFunc: func(context.Context, time.Time) ([]domain.SlotStatusChange, error) {
		return []domain.SlotStatusChange{{SlotID: 1, SlotNumber: "A1", Status: domain.SlotAvailable}}, nil
	}}
	ws := &recordingBroadcaster{}
	signage := &recordingSignage{err: errors.New("mqtt down")}
	events := &recordingPublisher{}
	cache := &passthroughCache{}

	sweeper := NewBookingSweeper(bookings, slots, NewNotifier(ws, signage, events), cache)
	sweeper.now = func() time.Time { return now }

	require.NoError(t, sweeper.Sweep(context.Background()))
	require.Len(t, events.events, 1)
	assert.Equal(t, domain.EventBookingCompleted, events.events[0].Type)
	assert.Equal(t, domain.SlotAvailable, signage.statuses["A1"])
	require.Len(t, ws.sent, 1)
	assert.Equal(t, domain.NotificationSlotStatus, ws.sent[0].Type)
	assert.Equal(t, 1, cache.invalidations)
}

func TestSweepNoChangesKeepsCache(t *testing.T) {
	bookings := &mockBookingRepo{CompleteElapsedFunc: func(context.Context, time.Time) ([]domain.Booking, error) { return nil, nil }}
	slots := &mockSlotRepo{SyncStatusesFunc: func(context.Context, time.Time) ([]domain.SlotStatusChange, error) { return nil, nil }}
	cache := &passthroughCache{}

	require.NoError(t, NewBookingSweeper(bookings, slots, nil, cache).Sweep(context.Background()))
	assert.Zero(t, cache.invalidations)
}

func TestSweepStopsOnRepoError(t *testing.T) {
	bookings := &mockBookingRepo{CompleteElapsedFunc: func(context.Context, time.Time) ([]domain.Booking, error) {
		return nil, errors.New("db down")
	}}
	err := NewBookingSweeper(bookings, &mockSlotRepo{}, nil, &passthroughCache{}).Sweep(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunReturnsOnCancel(t *testing.T) {
	bookings := &mockBookingRepo{CompleteElapsedFunc: func(context.Context, time.Time) ([]domain.Booking, error) { return nil, nil }}
	slots := &mockSlotRepo{SyncStatusesFunc: func(context.Context, time.Time) ([]domain.SlotStatusChange, error) { return nil, nil }}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewBookingSweeper(bookings, slots, nil, &passthroughCache{}).Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
