package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, owner entity.Owner, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, requester Requester, bookingID string) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, requester Requester, bookingID string) error
	ResendConfirmation(ctx context.Context, requester Requester, bookingID string) error

	// User history, keyed on the screening time of each booking
	GetUserBookingHistory(ctx context.Context, userID uuid.UUID, req *request.BookingHistoryRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetUpcomingBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error)
	GetPastBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error)

	// Sweep
	CancelAbandonedBookings(ctx context.Context) (SweepResult, error)
}

type BookingOptions struct {
	HoldTTL   time.Duration
	BatchSize int
}

type bookingService struct {
	repo     *repository.Repository
	seats    SeatService
	notifier notify.Notifier
	notices  noticeBuilder
	pricing  PricingPolicy
	clock    clock.Clock
	opts     BookingOptions
	log      *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	seats SeatService,
	owners OwnerService,
	notifier notify.Notifier,
	pricing PricingPolicy,
	clk clock.Clock,
	opts BookingOptions,
	log *zap.Logger,
) BookingService {
	log = log.With(zap.String("service", "booking"))
	return &bookingService{
		repo:     repo,
		seats:    seats,
		notifier: notifier,
		notices:  noticeBuilder{repo: repo, owners: owners, log: log},
		pricing:  pricing,
		clock:    clk,
		opts:     opts,
		log:      log,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, owner entity.Owner, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validateRequest(s.log, "Create booking", req); err != nil {
		return nil, err
	}
	if err := owner.Validate(); err != nil {
		return nil, fmt.Errorf("booking owner: %v: %w", err, utils.ErrUnauthenticated)
	}

	seatIDs, err := parseIDs("seat", req.SeatIDs)
	if err != nil {
		return nil, err
	}

	var (
		booking *entity.Booking
		detail  *entity.ShowtimeDetail
		seats   []*entity.Seat
	)
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		held, err := s.seats.HoldSeats(ctx, seatIDs)
		if err != nil {
			return err
		}
		heldAt := *held[0].ReservedAt
		showtimeID := held[0].ShowtimeID

		detail, err = s.repo.Showtime.FindDetailByID(ctx, showtimeID)
		if err != nil {
			return err
		}
		if detail == nil {
			return fmt.Errorf("showtime %s: %w", showtimeID, utils.ErrNotFound)
		}
		if !detail.ScreeningTime.After(heldAt) {
			return fmt.Errorf("showtime %s has already started: %w", showtimeID, utils.ErrInvalidState)
		}

		// Harga dikunci saat booking dibuat
		seatPrice := s.pricing.PriceCents(detail.BasePrice, detail.ScreeningTime)
		total := seatPrice * int64(len(held))

		booking = &entity.Booking{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: heldAt,
				UpdatedAt: heldAt,
			},
			Owner:         owner,
			ShowtimeID:    showtimeID,
			TotalPrice:    utils.FromCents(total),
			Status:        entity.BookingStatusPending,
			ScreeningTime: detail.ScreeningTime,
		}
		if err := s.repo.Booking.Create(ctx, booking); err != nil {
			return err
		}

		links := make([]*entity.BookingSeat, len(held))
		for i, seat := range held {
			links[i] = &entity.BookingSeat{
				BaseSimple: entity.BaseSimple{
					ID:        uuid.New(),
					CreatedAt: heldAt,
				},
				BookingID: booking.ID,
				SeatID:    seat.ID,
			}
		}
		if err := s.repo.BookingSeat.CreateBatch(ctx, links); err != nil {
			return err
		}

		seats = held
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.Stringer("owner", owner),
		zap.Int("seat_count", len(seats)),
		zap.Float64("total_price", booking.TotalPrice),
	)

	resp := response.BookingToResponse(booking, detail, seats)
	return &resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, requester Requester, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findAccessible(ctx, requester, bookingID)
	if err != nil {
		return nil, err
	}

	resp, err := s.toResponse(ctx, booking, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, requester Requester, bookingID string) error {
	id, err := parseID("booking", bookingID)
	if err != nil {
		return err
	}

	var (
		booking   *entity.Booking
		cancelled bool
	)
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		booking, err = s.repo.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("booking %s: %w", id, utils.ErrNotFound)
		}
		if !requester.CanAccess(booking.Owner) {
			return fmt.Errorf("booking %s belongs to another owner: %w", id, utils.ErrForbidden)
		}
		if booking.Status == entity.BookingStatusCancelled {
			return nil
		}

		now := s.clock.Now()
		if err := s.repo.Booking.UpdateStatus(ctx, id, entity.BookingStatusCancelled, now); err != nil {
			return err
		}
		booking.Status = entity.BookingStatusCancelled
		booking.UpdatedAt = now
		cancelled = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	if !cancelled {
		s.log.Info("Booking already cancelled", zap.String("booking_id", id.String()))
		return nil
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", id.String()),
		zap.Stringer("owner", booking.Owner),
	)

	if notice, ok := s.notices.booking(ctx, booking); ok {
		s.notifier.SendCancellationEmail(ctx, notice)
	}
	return nil
}

func (s *bookingService) ResendConfirmation(ctx context.Context, requester Requester, bookingID string) error {
	booking, err := s.findAccessible(ctx, requester, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("booking %s is %s, only confirmed bookings have a confirmation: %w",
			booking.ID, booking.Status, utils.ErrInvalidState)
	}

	notice, ok := s.notices.booking(ctx, booking)
	if !ok {
		return fmt.Errorf("booking %s has no reachable recipient", booking.ID)
	}
	s.notifier.SendReminder(ctx, notice)

	s.log.Info("Booking confirmation resent", zap.String("booking_id", booking.ID.String()))
	return nil
}

func (s *bookingService) findAccessible(ctx context.Context, requester Requester, bookingID string) (*entity.Booking, error) {
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
	return booking, nil
}

func (s *bookingService) GetUserBookingHistory(ctx context.Context, userID uuid.UUID, req *request.BookingHistoryRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := validateRequest(s.log, "Booking history", req); err != nil {
		return nil, err
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, fmt.Errorf("'to' date is before 'from' date: %w", utils.ErrInvalidArgument)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	loc := s.pricing.Location
	if loc == nil {
		loc = time.UTC
	}

	filtered := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if req.Status != nil && b.Status != *req.Status {
			continue
		}
		screening := b.ScreeningTime.In(loc)
		if req.From != nil && screening.Before(startOfDay(*req.From, loc)) {
			continue
		}
		if req.To != nil && !screening.Before(startOfDay(*req.To, loc).AddDate(0, 0, 1)) {
			continue
		}
		filtered = append(filtered, b)
	}
	sortByScreening(filtered, false)

	total := len(filtered)
	start := min(max(req.Offset(), 0), total)
	end := start + min(req.Limit(), total-start)

	page, err := s.toResponses(ctx, filtered[start:end])
	if err != nil {
		return nil, err
	}

	s.log.Info("User booking history retrieved",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(page)),
		zap.Int("total", total),
		zap.Int("page", req.CurrentPage()),
		zap.Int("per_page", req.Limit()),
	)

	return response.NewPaginatedResponse(page, req.CurrentPage(), req.Limit(), int64(total)), nil
}

func (s *bookingService) GetUpcomingBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error) {
	return s.partition(ctx, userID, true)
}

func (s *bookingService) GetPastBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error) {
	return s.partition(ctx, userID, false)
}

// partition splits the user's bookings at now. Cancelled bookings always count as past.
func (s *bookingService) partition(ctx context.Context, userID uuid.UUID, upcoming bool) ([]response.BookingResponse, error) {
	bookings, err := s.repo.Booking.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	now := s.clock.Now()
	selected := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		isUpcoming := b.ScreeningTime.After(now) && b.Status != entity.BookingStatusCancelled
		if isUpcoming == upcoming {
			selected = append(selected, b)
		}
	}
	sortByScreening(selected, upcoming)

	return s.toResponses(ctx, selected)
}

func (s *bookingService) CancelAbandonedBookings(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	cutoff := s.clock.Now().Add(-s.opts.HoldTTL)
	ids, err := s.repo.Booking.FindPendingCreatedBefore(ctx, cutoff, s.opts.BatchSize)
	if err != nil {
		return result, fmt.Errorf("find abandoned bookings: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++

		cancelled, err := s.cancelIfAbandoned(ctx, id)
		if err != nil {
			result.Failed++
			s.log.Error("Booking cleanup failed",
				zap.Error(err),
				zap.String("booking_id", id.String()),
			)
			continue
		}
		if cancelled {
			result.Changed++
		}
	}

	if result.Changed > 0 {
		s.log.Info("Abandoned bookings cancelled", zap.Int("count", result.Changed))
	}
	return result, nil
}

// cancelIfAbandoned cancels a PENDING booking only when every linked seat is
// AVAILABLE again. A seat re-held or booked by someone else keeps it pending.
func (s *bookingService) cancelIfAbandoned(ctx context.Context, id uuid.UUID) (bool, error) {
	var cancelled bool
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		cancelled = false

		booking, err := s.repo.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil || booking.Status != entity.BookingStatusPending {
			return nil
		}

		unavailable, err := s.repo.Seat.CountUnavailableByBooking(ctx, id)
		if err != nil {
			return err
		}
		if unavailable > 0 {
			return nil
		}

		if err := s.repo.Booking.UpdateStatus(ctx, id, entity.BookingStatusCancelled, s.clock.Now()); err != nil {
			return err
		}
		cancelled = true
		return nil
	})
	return cancelled, err
}

func (s *bookingService) toResponses(ctx context.Context, bookings []*entity.Booking) ([]response.BookingResponse, error) {
	details := make(map[uuid.UUID]*entity.ShowtimeDetail)
	out := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp, err := s.toResponse(ctx, b, details)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *bookingService) toResponse(ctx context.Context, booking *entity.Booking, cache map[uuid.UUID]*entity.ShowtimeDetail) (response.BookingResponse, error) {
	detail, ok := cache[booking.ShowtimeID]
	if !ok {
		var err error
		detail, err = s.repo.Showtime.FindDetailByID(ctx, booking.ShowtimeID)
		if err != nil {
			return response.BookingResponse{}, fmt.Errorf("get showtime %s: %w", booking.ShowtimeID, err)
		}
		if cache != nil {
			cache[booking.ShowtimeID] = detail
		}
	}

	seats, err := s.repo.BookingSeat.FindSeatsByBookingID(ctx, booking.ID)
	if err != nil {
		return response.BookingResponse{}, fmt.Errorf("get booking seats %s: %w", booking.ID, err)
	}

	return response.BookingToResponse(booking, detail, seats), nil
}

func sortByScreening(bookings []*entity.Booking, ascending bool) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if ascending {
			return bookings[i].ScreeningTime.Before(bookings[j].ScreeningTime)
		}
		return bookings[i].ScreeningTime.After(bookings[j].ScreeningTime)
	})
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
