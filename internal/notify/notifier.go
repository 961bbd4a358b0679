// Package notify delivers customer notifications out of band. Senders never
// report failure to the caller: the booking transaction that triggered a
// notification has already committed.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, notice BookingNotice)
	SendCancellationEmail(ctx context.Context, notice BookingNotice)
	SendReminder(ctx context.Context, notice BookingNotice)
	SendPaymentConfirmation(ctx context.Context, recipient string, paymentID uuid.UUID)
	SendRefundNotification(ctx context.Context, recipient string, paymentID uuid.UUID)
}

// BookingNotice is everything a booking email needs, so consumers never
// read the database.
type BookingNotice struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Recipient     string    `json:"recipient"`
	MovieTitle    string    `json:"movie_title"`
	CinemaName    string    `json:"cinema_name"`
	Hall          int       `json:"hall"`
	ScreeningTime time.Time `json:"screening_time"`
	SeatNumbers   []string  `json:"seat_numbers"`
	TotalPrice    float64   `json:"total_price"`
	Status        string    `json:"status"`
}

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingReminder  EventType = "booking.reminder"
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentRefunded  EventType = "payment.refunded"
)

// Event is the message published for every notification.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Recipient  string         `json:"recipient"`
	PaymentID  *uuid.UUID     `json:"payment_id,omitempty"`
	Booking    *BookingNotice `json:"booking,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
