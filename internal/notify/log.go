package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log.With(zap.String("publisher", "log"))}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)),
		zap.String("recipient", event.Recipient),
	}
	if event.PaymentID != nil {
		fields = append(fields, zap.String("payment_id", event.PaymentID.String()))
	}
	if event.Booking != nil {
		fields = append(fields,
			zap.String("booking_id", event.Booking.BookingID.String()),
			zap.Strings("seats", event.Booking.SeatNumbers),
		)
	}
	p.log.Info("Notification", fields...)
	return nil
}
