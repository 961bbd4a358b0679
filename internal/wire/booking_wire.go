package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== USER OR GUEST ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuthSession(repo.Session, log))

		// POST /api/bookings - Hold seats and create a pending booking
		r.Post("/api/bookings", bookingHandler.CreateBooking)
	})

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		r.Route("/api/bookings/{id}", func(r chi.Router) {
			r.Get("/", bookingHandler.GetBooking)
			r.Delete("/", bookingHandler.CancelBooking)
			r.Post("/resend-confirmation", bookingHandler.ResendConfirmation)
		})

		r.Route("/api/user/bookings", func(r chi.Router) {
			r.Get("/history", bookingHandler.GetHistory)
			r.Get("/upcoming", bookingHandler.GetUpcoming)
			r.Get("/past", bookingHandler.GetPast)
		})
	})
}
