package entity

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "AVAILABLE"
	SeatStatusUnconfirmed SeatStatus = "UNCONFIRMED"
	SeatStatusBooked      SeatStatus = "BOOKED"
)

// Seat is one physical seat of one showtime. ReservedAt is set only while
// the seat is UNCONFIRMED and identifies the hold.
type Seat struct {
	Base
	ShowtimeID uuid.UUID  `db:"showtime_id"`
	SeatNumber string     `db:"seat_number"` // A1, A2, B1, etc.
	SeatRow    string     `db:"seat_row"`    // A, B, C, etc.
	SeatColumn int        `db:"seat_column"` // 1, 2, 3, etc.
	Status     SeatStatus `db:"status"`
	ReservedAt *time.Time `db:"reserved_at"`
}

// HeldBy reports whether the seat is still held under the hold stamped at heldAt.
func (s *Seat) HeldBy(heldAt time.Time) bool {
	return s.Status == SeatStatusUnconfirmed && s.ReservedAt != nil && s.ReservedAt.Equal(heldAt)
}
