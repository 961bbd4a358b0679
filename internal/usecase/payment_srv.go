package usecase

import (
	"context"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, requester Requester, req *request.CreatePaymentRequest) (*response.PaymentResponse, error)
	MakePayment(ctx context.Context, requester Requester, req *request.MakePaymentRequest) (*response.PaymentResponse, error)
	GetPendingPayment(ctx context.Context, requester Requester, bookingID string) (*response.PaymentResponse, error)
	ProcessRefund(ctx context.Context, requester Requester, req *request.RefundRequest) (*response.PaymentResponse, error)

	// Sweep
	ExpirePendingPayments(ctx context.Context) (SweepResult, error)
}

type PaymentOptions struct {
	Window       time.Duration
	RefundCutoff time.Duration
	BatchSize    int
}

type paymentService struct {
	repo     *repository.Repository
	seats    SeatService
	notifier notify.Notifier
	notices  noticeBuilder
	clock    clock.Clock
	opts     PaymentOptions
	log      *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	seats SeatService,
	owners OwnerService,
	notifier notify.Notifier,
	clk clock.Clock,
	opts PaymentOptions,
	log *zap.Logger,
) PaymentService {
	log = log.With(zap.String("service", "payment"))
	return &paymentService{
		repo:     repo,
		seats:    seats,
		notifier: notifier,
		notices:  noticeBuilder{repo: repo, owners: owners, log: log},
		clock:    clk,
		opts:     opts,
		log:      log,
	}
}

func (s *paymentService) expired(payment *entity.Payment, now time.Time) bool {
	return !now.Before(payment.CreatedAt.Add(s.opts.Window))
}

func (s *paymentService) CreatePayment(ctx context.Context, requester Requester, req *request.CreatePaymentRequest) (*response.PaymentResponse, error) {
	if err := validateRequest(s.log, "Create payment", req); err != nil {
		return nil, err
	}

	bookingID, err := parseID("booking", req.BookingID)
	if err != nil {
		return nil, err
	}

	var payment *entity.Payment
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, requester, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != entity.BookingStatusPending {
			return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, utils.ErrInvalidState)
		}

		now := s.clock.Now()
		pending, err := s.repo.Payment.FindPendingByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if pending != nil {
			if !s.expired(pending, now) {
				return fmt.Errorf("booking %s already has pending payment %s: %w", bookingID, pending.ID, utils.ErrInvalidState)
			}
			// Payment lama sudah lewat window, gagalkan dulu sebelum membuat yang baru
			pending.Status = entity.PaymentStatusFailed
			pending.UpdatedAt = now
			if err := s.repo.Payment.Update(ctx, pending); err != nil {
				return err
			}
		}

		payment = &entity.Payment{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID: bookingID,
			Amount:    booking.TotalPrice,
			Status:    entity.PaymentStatusPending,
		}
		if err := s.repo.Payment.Create(ctx, payment); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("booking %s already has a pending payment: %w", bookingID, utils.ErrInvalidState)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.Float64("amount", payment.Amount),
	)

	resp := response.PaymentToResponse(payment, s.opts.Window)
	return &resp, nil
}

func (s *paymentService) MakePayment(ctx context.Context, requester Requester, req *request.MakePaymentRequest) (*response.PaymentResponse, error) {
	if err := validateRequest(s.log, "Make payment", req); err != nil {
		return nil, err
	}

	paymentID, err := parseID("payment", req.PaymentID)
	if err != nil {
		return nil, err
	}
	method := entity.PaymentMethod(req.Method)

	var (
		payment *entity.Payment
		booking *entity.Booking
		expired bool
	)
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		expired = false

		payment, err = s.repo.Payment.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("payment %s: %w", paymentID, utils.ErrNotFound)
		}

		booking, err = s.lockBooking(ctx, requester, payment.BookingID)
		if err != nil {
			return err
		}

		if payment.Status != entity.PaymentStatusPending {
			return fmt.Errorf("payment %s is %s: %w", paymentID, payment.Status, utils.ErrInvalidState)
		}

		now := s.clock.Now()
		if s.expired(payment, now) {
			payment.Status = entity.PaymentStatusFailed
			payment.UpdatedAt = now
			// Status FAILED harus ikut commit
			expired = true
			return s.repo.Payment.Update(ctx, payment)
		}

		if !method.Valid() {
			return fmt.Errorf("unknown payment method %q: %w", req.Method, utils.ErrInvalidArgument)
		}
		if utils.ToCents(req.Amount) != utils.ToCents(payment.Amount) {
			return fmt.Errorf("payment amount %.2f does not match booking total %.2f: %w",
				req.Amount, payment.Amount, utils.ErrInvalidArgument)
		}
		if booking.Status != entity.BookingStatusPending {
			return fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, utils.ErrInvalidState)
		}

		seats, err := s.repo.BookingSeat.FindSeatsByBookingID(ctx, booking.ID)
		if err != nil {
			return err
		}
		seatIDs := make([]uuid.UUID, len(seats))
		for i, seat := range seats {
			seatIDs[i] = seat.ID
		}
		if err := s.seats.MarkBooked(ctx, seatIDs, booking.CreatedAt); err != nil {
			return err
		}

		payment.Status = entity.PaymentStatusSuccessful
		payment.Method = &method
		payment.UpdatedAt = now
		if err := s.repo.Payment.Update(ctx, payment); err != nil {
			return err
		}

		if err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed, now); err != nil {
			return err
		}
		booking.Status = entity.BookingStatusConfirmed
		booking.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make payment: %w", err)
	}
	if expired {
		s.log.Info("Payment attempted after window, marked failed",
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("payment %s window of %s has expired: %w", paymentID, s.opts.Window, utils.ErrInvalidState)
	}

	s.log.Info("Payment successful",
		zap.String("payment_id", payment.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("method", string(method)),
		zap.Float64("amount", payment.Amount),
	)

	if email, ok := s.notices.recipient(ctx, booking.Owner); ok {
		s.notifier.SendPaymentConfirmation(ctx, email, payment.ID)
	}
	if notice, ok := s.notices.booking(ctx, booking); ok {
		s.notifier.SendBookingConfirmation(ctx, notice)
	}

	resp := response.PaymentToResponse(payment, s.opts.Window)
	return &resp, nil
}

func (s *paymentService) GetPendingPayment(ctx context.Context, requester Requester, bookingID string) (*response.PaymentResponse, error) {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", id, utils.ErrNotFound)
	}
	if !requester.CanAccess(booking.Owner) {
		return nil, fmt.Errorf("booking %s belongs to another owner: %w", id, utils.ErrForbidden)
	}

	payment, err := s.repo.Payment.FindPendingByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get pending payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("no pending payment for booking %s: %w", id, utils.ErrNotFound)
	}

	resp := response.PaymentToResponse(payment, s.opts.Window)
	return &resp, nil
}

func (s *paymentService) ProcessRefund(ctx context.Context, requester Requester, req *request.RefundRequest) (*response.PaymentResponse, error) {
	if err := validateRequest(s.log, "Process refund", req); err != nil {
		return nil, err
	}

	paymentID, err := parseID("payment", req.PaymentID)
	if err != nil {
		return nil, err
	}

	var (
		payment *entity.Payment
		booking *entity.Booking
	)
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		payment, err = s.repo.Payment.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("payment %s: %w", paymentID, utils.ErrNotFound)
		}

		booking, err = s.lockBooking(ctx, requester, payment.BookingID)
		if err != nil {
			return err
		}

		if payment.Status != entity.PaymentStatusSuccessful {
			return fmt.Errorf("payment %s is %s, only successful payments can be refunded: %w",
				paymentID, payment.Status, utils.ErrInvalidState)
		}

		now := s.clock.Now()
		if !now.Add(s.opts.RefundCutoff).Before(booking.ScreeningTime) {
			return fmt.Errorf("refund closes %s before the screening: %w", s.opts.RefundCutoff, utils.ErrInvalidState)
		}

		payment.Status = entity.PaymentStatusRefunded
		payment.UpdatedAt = now
		return s.repo.Payment.Update(ctx, payment)
	})
	if err != nil {
		return nil, fmt.Errorf("process refund: %w", err)
	}

	s.log.Info("Payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.Float64("amount", payment.Amount),
	)

	if email, ok := s.notices.recipient(ctx, booking.Owner); ok {
		s.notifier.SendRefundNotification(ctx, email, payment.ID)
	}

	resp := response.PaymentToResponse(payment, s.opts.Window)
	return &resp, nil
}

func (s *paymentService) ExpirePendingPayments(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	cutoff := s.clock.Now().Add(-s.opts.Window)
	ids, err := s.repo.Payment.FindExpiredPending(ctx, cutoff, s.opts.BatchSize)
	if err != nil {
		return result, fmt.Errorf("find expired payments: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++

		failed, err := s.failIfExpired(ctx, id)
		if err != nil {
			result.Failed++
			s.log.Error("Payment expiry failed",
				zap.Error(err),
				zap.String("payment_id", id.String()),
			)
			continue
		}
		if failed {
			result.Changed++
		}
	}

	if result.Changed > 0 {
		s.log.Info("Expired payments failed", zap.Int("count", result.Changed))
	}
	return result, nil
}

func (s *paymentService) failIfExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	var failed bool
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		failed = false

		payment, err := s.repo.Payment.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if payment == nil || payment.Status != entity.PaymentStatusPending || !s.expired(payment, now) {
			return nil
		}

		payment.Status = entity.PaymentStatusFailed
		payment.UpdatedAt = now
		if err := s.repo.Payment.Update(ctx, payment); err != nil {
			return err
		}
		failed = true
		return nil
	})
	return failed, err
}

func (s *paymentService) lockBooking(ctx context.Context, requester Requester, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, utils.ErrNotFound)
	}
	if !requester.CanAccess(booking.Owner) {
		return nil, fmt.Errorf("booking %s belongs to another owner: %w", bookingID, utils.ErrForbidden)
	}
	return booking, nil
}
