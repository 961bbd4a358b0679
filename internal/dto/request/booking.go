package request

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type CreateBookingRequest struct {
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,max=20,dive,uuid"`
	GuestEmail string   `json:"guest_email,omitempty" validate:"omitempty,email"`
}

// BookingHistoryRequest filters a user's bookings by screening date (inclusive) and status.
type BookingHistoryRequest struct {
	PaginatedRequest
	From   *time.Time
	To     *time.Time
	Status *entity.BookingStatus
}
