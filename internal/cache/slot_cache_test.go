package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyakodukula/parking/internal/domain"
)

func sampleStats() *domain.OccupancyStats {
	s := &domain.OccupancyStats{TotalSlots: 4, AvailableSlots: 3, BookedSlots: 1, ActiveBookings: 2}
	s.ComputeRate()
	return s
}

func TestOccupancyMissLoadsAndStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewSlotCache(db, 30*time.Second)
	stats := sampleStats()
	raw, err := json.Marshal(stats)
	require.NoError(t, err)

	mock.ExpectGet(OccupancyKey).RedisNil()
	mock.ExpectSet(OccupancyKey, raw, 30*time.Second).SetVal("OK")

	calls := 0
	got, err := c.Occupancy(context.Background(), func(context.Context) (*domain.OccupancyStats, error) {
		calls++
		return stats, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, stats, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyHitSkipsLoader(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewSlotCache(db, time.Minute)
	raw, _ := json.Marshal(sampleStats())

	mock.ExpectGet(OccupancyKey).SetVal(string(raw))

	got, err := c.Occupancy(context.Background(), func(context.Context) (*domain.OccupancyStats, error) {
		t.Fatal("loader must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.OccupancyRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailableSlotsFallsThroughOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewSlotCache(db, time.Minute)
	slots := []domain.ParkingSlot{{ID: 1, SlotNumber: "A1", Status: domain.SlotAvailable}}
	raw, _ := json.Marshal(slots)

	mock.ExpectGet(AvailableSlotsKey).SetErr(errors.New("connection refused"))
	mock.ExpectSet(AvailableSlotsKey, raw, time.Minute).SetErr(errors.New("connection refused"))

	got, err := c.AvailableSlots(context.Background(), func(context.Context) ([]domain.ParkingSlot, error) {
		return slots, nil
	})
	require.NoError(t, err)
	assert.Equal(t, slots, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderErrorIsReturned(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewSlotCache(db, time.Minute)
	mock.ExpectGet(OccupancyKey).RedisNil()

	_, err := c.Occupancy(context.Background(), func(context.Context) (*domain.OccupancyStats, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateDeletesKeys(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel(OccupancyKey, AvailableSlotsKey).SetVal(2)

	NewSlotCache(db, time.Minute).Invalidate(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilClientLoadsDirectly(t *testing.T) {
	c := NewSlotCache(nil, time.Minute)
	got, err := c.Occupancy(context.Background(), func(context.Context) (*domain.OccupancyStats, error) {
		return sampleStats(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalSlots)
	c.Invalidate(context.Background())
}
