package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID            int           `json:"id"`
	UserID        int           `json:"user_id"`
	SlotID        int           `json:"slot_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      float64       `json:"duration"` // hours
	Amount        float64       `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentID     string        `json:"payment_id"`
	RefundAmount  null.Float    `json:"refund_amount"`
	Status        BookingStatus `json:"status"`
	VehiclePlate  null.String   `json:"vehicle_plate"`
	CheckedInAt   null.Time     `json:"checked_in_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Slot *SlotSummary `json:"slot,omitempty"`
	User *UserSummary `json:"user,omitempty"`
}

type CreateBookingDTO struct {
	SlotID          int       `json:"slot_id" binding:"required,gt=0"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	PaymentMethodID string    `json:"payment_method_id" binding:"required"`
	VehiclePlate    string    `json:"vehicle_plate,omitempty" binding:"omitempty,max=16"`
}

type CheckInDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required,base64"`
}

type CheckInResultDTO struct {
	Booking       *Booking `json:"booking"`
	DetectedPlate string   `json:"detected_plate"`
	Confidence    float32  `json:"confidence,omitempty"`
}
