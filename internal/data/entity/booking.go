package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking groups held seats of one showtime into one purchase.
// CreatedAt equals the reservedAt stamp of the seats it holds.
type Booking struct {
	Base
	Owner      Owner
	ShowtimeID uuid.UUID     `db:"showtime_id"`
	TotalPrice float64       `db:"total_price"`
	Status     BookingStatus `db:"status"`

	// ScreeningTime is joined from showtimes on read.
	ScreeningTime time.Time `db:"-"`
}
