package wire

import (
	"cinema-ticketing/internal/adaptor"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// Guest boleh bayar dengan guest_email, token tetap dicek kalau dikirim
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthSession(repo.Session, log))

			r.Post("/", paymentHandler.CreatePayment)
			r.Post("/pay", paymentHandler.MakePayment)
			r.Get("/booking/{bookingId}", paymentHandler.GetPendingPayment)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthSession(repo.Session, log))

			r.Post("/refund", paymentHandler.ProcessRefund)
		})
	})
}
