package usecase

import (
	"fmt"

	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	Seat    SeatService
	Booking BookingService
	Payment PaymentService
	Owner   OwnerService
}

// SweepResult summarizes one pass of a cleanup sweep.
type SweepResult struct {
	Scanned int
	Changed int
	Failed  int
}

func (r *SweepResult) add(other SweepResult) {
	r.Scanned += other.Scanned
	r.Changed += other.Changed
	r.Failed += other.Failed
}

// NewService merakit semua service booking engine
func NewService(repo *repository.Repository, config *utils.Config, notifier notify.Notifier, clk clock.Clock, log *zap.Logger) (*Service, error) {
	loc, err := config.App.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone %q: %w", config.App.Timezone, err)
	}

	pricing := PricingPolicy{Location: loc, MarkupPercent: config.Booking.WeekendMarkupPercent}
	batchSize := config.Sweep.BatchSize

	owner := NewOwnerService(repo, clk, log)
	seat := NewSeatService(repo, clk, config.Booking.HoldTTL, log)
	booking := NewBookingService(repo, seat, owner, notifier, pricing, clk, BookingOptions{
		HoldTTL:   config.Booking.HoldTTL,
		BatchSize: batchSize,
	}, log)
	payment := NewPaymentService(repo, seat, owner, notifier, clk, PaymentOptions{
		Window:       config.Booking.PaymentWindow,
		RefundCutoff: config.Booking.RefundCutoff,
		BatchSize:    batchSize,
	}, log)

	return &Service{
		Seat:    seat,
		Booking: booking,
		Payment: payment,
		Owner:   owner,
	}, nil
}

func validateRequest(log *zap.Logger, operation string, req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		log.Warn(operation+" validation failed", zap.Any("errors", errs))
		return &utils.ValidationError{Fields: errs}
	}
	return nil
}

func parseID(kind, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID format %s: %w", kind, value, utils.ErrInvalidArgument)
	}
	return id, nil
}

func parseIDs(kind string, values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, value := range values {
		id, err := parseID(kind, value)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
