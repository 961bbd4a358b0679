package entity

import (
	"time"

	"github.com/google/uuid"
)

type Showtime struct {
	Base
	MovieID       uuid.UUID `db:"movie_id"`
	CinemaID      uuid.UUID `db:"cinema_id"`
	Hall          int       `db:"hall"`
	ScreeningTime time.Time `db:"screening_time"`
	TotalSeats    int       `db:"total_seats"`
}

// ShowtimeDetail is the catalog view used for pricing and receipts.
type ShowtimeDetail struct {
	Showtime
	MovieTitle string
	BasePrice  float64
	CinemaName string
}
