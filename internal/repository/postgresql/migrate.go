package postgresql

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Schema records. They only describe the tables for AutoMigrate; queries go through
// database/sql in the repositories.

type userRecord struct {
	ID           int    `gorm:"primaryKey"`
	Username     string `gorm:"size:50;not null;uniqueIndex:users_username_key"`
	Name         string `gorm:"size:100;not null;default:''"`
	Email        string `gorm:"size:255;not null;default:''"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type slotRecord struct {
	ID         int     `gorm:"primaryKey"`
	SlotNumber string  `gorm:"size:32;not null;uniqueIndex:parking_slots_slot_number_key"`
	Status     string  `gorm:"size:16;not null;default:available;index"`
	Type       string  `gorm:"size:16;not null;default:standard"`
	HourlyRate float64 `gorm:"type:numeric(10,2);not null;default:5"`
	DailyRate  float64 `gorm:"type:numeric(10,2);not null;default:30"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (slotRecord) TableName() string { return "parking_slots" }

type bookingRecord struct {
	ID            int        `gorm:"primaryKey"`
	UserID        int        `gorm:"not null;index"`
	User          userRecord `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	SlotID        int        `gorm:"not null;index:idx_bookings_slot_window,priority:1"`
	Slot          slotRecord `gorm:"foreignKey:SlotID;constraint:OnDelete:RESTRICT"`
	StartTime     time.Time  `gorm:"not null;index:idx_bookings_slot_window,priority:3"`
	EndTime       time.Time  `gorm:"not null;index:idx_bookings_slot_window,priority:4"`
	Duration      float64    `gorm:"type:double precision;not null"`
	Amount        float64    `gorm:"type:numeric(10,2);not null"`
	PaymentStatus string     `gorm:"size:16;not null;default:pending"`
	PaymentID     string     `gorm:"size:255;not null;default:'';index"`
	RefundAmount  *float64   `gorm:"type:numeric(10,2)"`
	Status        string     `gorm:"size:16;not null;default:active;index:idx_bookings_slot_window,priority:2"`
	VehiclePlate  *string    `gorm:"size:16"`
	CheckedInAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (bookingRecord) TableName() string { return "bookings" }

// Migrate creates or updates the users, parking_slots and bookings tables on db.
func Migrate(db *sql.DB) error {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open gorm session: %w", err)
	}
	if err := gdb.AutoMigrate(&userRecord{}, &slotRecord{}, &bookingRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
