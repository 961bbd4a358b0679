package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSeat(
	r chi.Router,
	seatHandler *adaptor.SeatHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/showtimes/{showtimeId}/seats - Seat map of one showtime
	r.Get("/api/showtimes/{showtimeId}/seats", seatHandler.GetSeats)

	// POST /api/seats/select - Hold seats without creating a booking
	r.Post("/api/seats/select", seatHandler.SelectSeats)
}
