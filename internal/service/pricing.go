package service

import (
	"math"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect. Touching
// endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// CalculateAmount prices a window on a slot. Windows of 24h or more are billed in
// whole days at the daily rate, shorter ones in whole hours at the hourly rate.
func CalculateAmount(slot *domain.ParkingSlot, start, end time.Time) (hours, amount float64) {
	hours = end.Sub(start).Hours()
	if hours >= 24 {
		return hours, math.Ceil(hours/24) * slot.DailyRate
	}
	return hours, math.Ceil(hours) * slot.HourlyRate
}

func ChargeCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// RefundCents is percent of the charged cents, rounded down.
func RefundCents(amount float64, percent int64) int64 {
	return ChargeCents(amount) * percent / 100
}
