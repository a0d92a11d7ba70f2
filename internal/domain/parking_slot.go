package domain

import "time"

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotBooked      SlotStatus = "booked"
	SlotMaintenance SlotStatus = "maintenance"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotMaintenance:
		return true
	}
	return false
}

type SlotType string

const (
	SlotStandard SlotType = "standard"
	SlotDisabled SlotType = "disabled"
	SlotFamily   SlotType = "family"
	SlotElectric SlotType = "electric"
)

func (t SlotType) Valid() bool {
	switch t {
	case SlotStandard, SlotDisabled, SlotFamily, SlotElectric:
		return true
	}
	return false
}

const (
	DefaultHourlyRate = 5.0
	DefaultDailyRate  = 30.0
)

type ParkingSlot struct {
	ID         int        `json:"id"`
	SlotNumber string     `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	Type       SlotType   `json:"type"`
	HourlyRate float64    `json:"hourly_rate"`
	DailyRate  float64    `json:"daily_rate"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ParkingSlotDTO is the admin create/update payload.
type ParkingSlotDTO struct {
	SlotNumber string   `json:"slot_number" binding:"required,max=32"`
	Type       SlotType `json:"type" binding:"required,oneof=standard disabled family electric"`
	Status     string   `json:"status,omitempty" binding:"omitempty,oneof=available booked maintenance"`
	HourlyRate *float64 `json:"hourly_rate" binding:"required,gte=0"`
	DailyRate  *float64 `json:"daily_rate" binding:"required,gte=0"`
}

// SlotSummary is the slot projection embedded in booking listings.
type SlotSummary struct {
	ID         int      `json:"id"`
	SlotNumber string   `json:"slot_number"`
	Type       SlotType `json:"type"`
}

type AvailabilityQuery struct {
	StartTime time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime   time.Time `form:"end_time" binding:"required,gtfield=StartTime" time_format:"2006-01-02T15:04:05Z07:00"`
}
