package repository

import (
	"cinema-ticketing/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Tx          database.Transactor
	User        UserRepository
	Session     SessionRepository
	Guest       GuestRepository
	Showtime    ShowtimeRepository
	Seat        SeatRepository
	Booking     BookingRepository
	BookingSeat BookingSeatRepository
	Payment     PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:          db,
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Guest:       NewGuestRepository(db, log),
		Showtime:    NewShowtimeRepository(db, log),
		Seat:        NewSeatRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		BookingSeat: NewBookingSeatRepository(db, log),
		Payment:     NewPaymentRepository(db, log),
	}
}
