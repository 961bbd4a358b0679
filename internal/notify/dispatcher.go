package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher hands one event to a transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type DispatcherConfig struct {
	BufferSize     int
	PublishTimeout time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
	}
}

// Dispatcher queues events in memory and publishes them from Run, so a slow
// or unreachable broker never delays a request. When the buffer is full the
// event is dropped and logged.
type Dispatcher struct {
	publisher Publisher
	queue     chan Event
	config    DispatcherConfig
	now       func() time.Time
	log       *zap.Logger
}

func NewDispatcher(publisher Publisher, config DispatcherConfig, log *zap.Logger) *Dispatcher {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultDispatcherConfig().BufferSize
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultDispatcherConfig().PublishTimeout
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan Event, config.BufferSize),
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With(zap.String("worker", "notify")),
	}
}

func (d *Dispatcher) SendBookingConfirmation(ctx context.Context, notice BookingNotice) {
	d.enqueue(EventBookingConfirmed, notice.Recipient, nil, &notice)
}

func (d *Dispatcher) SendCancellationEmail(ctx context.Context, notice BookingNotice) {
	d.enqueue(EventBookingCancelled, notice.Recipient, nil, &notice)
}

func (d *Dispatcher) SendReminder(ctx context.Context, notice BookingNotice) {
	d.enqueue(EventBookingReminder, notice.Recipient, nil, &notice)
}

func (d *Dispatcher) SendPaymentConfirmation(ctx context.Context, recipient string, paymentID uuid.UUID) {
	d.enqueue(EventPaymentSucceeded, recipient, &paymentID, nil)
}

func (d *Dispatcher) SendRefundNotification(ctx context.Context, recipient string, paymentID uuid.UUID) {
	d.enqueue(EventPaymentRefunded, recipient, &paymentID, nil)
}

func (d *Dispatcher) enqueue(eventType EventType, recipient string, paymentID *uuid.UUID, notice *BookingNotice) {
	event := Event{
		ID:         uuid.New(),
		Type:       eventType,
		Recipient:  recipient,
		PaymentID:  paymentID,
		Booking:    notice,
		OccurredAt: d.now(),
	}

	select {
	case d.queue <- event:
	default:
		d.log.Warn("Notification dropped, buffer full",
			zap.String("type", string(eventType)),
			zap.String("event_id", event.ID.String()),
		)
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left with a fresh timeout.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("Notification dispatcher started")
	for {
		select {
		case event := <-d.queue:
			d.publish(ctx, event)
		case <-ctx.Done():
			d.drain()
			d.log.Info("Notification dispatcher stopped")
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.PublishTimeout)
	defer cancel()
	for {
		select {
		case event := <-d.queue:
			d.publish(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	pubCtx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, event); err != nil {
		d.log.Error("Failed to publish notification",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("event_id", event.ID.String()),
		)
	}
}
