package response

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type SeatResponse struct {
	ID         string            `json:"id"`
	ShowtimeID string            `json:"showtime_id"`
	SeatNumber string            `json:"seat_number"`
	Row        string            `json:"row"`
	Column     int               `json:"column"`
	Status     entity.SeatStatus `json:"status"`
	ReservedAt *time.Time        `json:"reserved_at,omitempty"`
}

type ReleaseResponse struct {
	ShowtimeID string `json:"showtime_id"`
	Released   int    `json:"released"`
}

func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:         seat.ID.String(),
		ShowtimeID: seat.ShowtimeID.String(),
		SeatNumber: seat.SeatNumber,
		Row:        seat.SeatRow,
		Column:     seat.SeatColumn,
		Status:     seat.Status,
		ReservedAt: seat.ReservedAt,
	}
}

func SeatsToResponse(seats []*entity.Seat) []SeatResponse {
	out := make([]SeatResponse, len(seats))
	for i, seat := range seats {
		out[i] = SeatToResponse(seat)
	}
	return out
}
