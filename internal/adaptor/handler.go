package adaptor

import (
	"time"

	"cinema-ticketing/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Seat    *SeatHandler
	Booking *BookingHandler
	Payment *PaymentHandler
	Sweep   *SweepHandler
}

func NewHandler(service *usecase.Service, sweeps SweepStatsProvider, loc *time.Location, log *zap.Logger) *Handler {
	return &Handler{
		Seat:    NewSeatHandler(service.Seat, log),
		Booking: NewBookingHandler(service.Booking, service.Owner, loc, log),
		Payment: NewPaymentHandler(service.Payment, service.Owner, log),
		Sweep:   NewSweepHandler(sweeps, log),
	}
}
