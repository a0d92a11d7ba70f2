package service

import "errors"

var (
	ErrSlotNotFound          = errors.New("parking slot not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInvalidTimeRange      = errors.New("end time must be after start time")
	ErrSlotUnavailable       = errors.New("slot is under maintenance")
	ErrSlotAlreadyBooked     = errors.New("slot already booked for the selected time")
	ErrNotBookingOwner       = errors.New("not authorized")
	ErrBookingNotActive      = errors.New("booking is not active")
	ErrDuplicateSlotNumber   = errors.New("slot number already exists")
	ErrSlotHasActiveBookings = errors.New("cannot delete slot with active bookings")
	ErrNoVehiclePlate        = errors.New("booking has no vehicle plate to check in")
	ErrPlateMismatch         = errors.New("detected plate does not match booking")
	ErrCheckInUnavailable    = errors.New("plate check-in is not configured")
	ErrInvalidImage          = errors.New("image is not valid base64")
)
