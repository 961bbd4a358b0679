package response

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	OwnerType     entity.OwnerKind     `json:"owner_type"`
	OwnerID       string               `json:"owner_id"`
	ShowtimeID    string               `json:"showtime_id"`
	MovieTitle    string               `json:"movie_title,omitempty"`
	CinemaName    string               `json:"cinema_name,omitempty"`
	Hall          int                  `json:"hall,omitempty"`
	ScreeningTime time.Time            `json:"screening_time"`
	TotalSeats    int                  `json:"total_seats"`
	TotalPrice    float64              `json:"total_price"`
	Status        entity.BookingStatus `json:"status"`
	SeatNumbers   []string             `json:"seat_numbers"`
	CreatedAt     time.Time            `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking, detail *entity.ShowtimeDetail, seats []*entity.Seat) BookingResponse {
	seatNumbers := make([]string, len(seats))
	for i, seat := range seats {
		seatNumbers[i] = seat.SeatNumber
	}

	resp := BookingResponse{
		ID:            booking.ID.String(),
		OwnerType:     booking.Owner.Kind,
		OwnerID:       booking.Owner.ID.String(),
		ShowtimeID:    booking.ShowtimeID.String(),
		ScreeningTime: booking.ScreeningTime,
		TotalSeats:    len(seats),
		TotalPrice:    booking.TotalPrice,
		Status:        booking.Status,
		SeatNumbers:   seatNumbers,
		CreatedAt:     booking.CreatedAt,
	}
	if detail != nil {
		resp.MovieTitle = detail.MovieTitle
		resp.CinemaName = detail.CinemaName
		resp.Hall = detail.Hall
		resp.ScreeningTime = detail.ScreeningTime
	}
	return resp
}
