package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	handler *adaptor.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		// POST /api/admin/showtimes/{showtimeId}/seats - Lay out the seat grid
		r.Post("/showtimes/{showtimeId}/seats", handler.Seat.CreateInventory)

		// POST /api/admin/showtimes/{showtimeId}/release - Free every seat of a showtime
		r.Post("/showtimes/{showtimeId}/release", handler.Seat.ReleaseShowtime)

		// GET /api/admin/sweeps - Sweeper statistics
		r.Get("/sweeps", handler.Sweep.GetStats)
	})
}
