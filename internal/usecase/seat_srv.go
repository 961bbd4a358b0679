package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/dto/response"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatService interface {
	GetSeats(ctx context.Context, showtimeID string) ([]response.SeatResponse, error)
	SelectSeats(ctx context.Context, req *request.SelectSeatsRequest) ([]response.SeatResponse, error)

	// HoldSeats moves every seat AVAILABLE -> UNCONFIRMED under one stamp, all or nothing.
	HoldSeats(ctx context.Context, seatIDs []uuid.UUID) ([]*entity.Seat, error)
	// MarkBooked moves seats held under heldAt to BOOKED.
	MarkBooked(ctx context.Context, seatIDs []uuid.UUID, heldAt time.Time) error
	ReleaseExpiredHolds(ctx context.Context, showtimeID uuid.UUID, holdTTL time.Duration) (int, error)

	// Admin endpoints
	ReleaseShowtime(ctx context.Context, showtimeID string) (*response.ReleaseResponse, error)
	CreateInventory(ctx context.Context, showtimeID string, req *request.CreateInventoryRequest) ([]response.SeatResponse, error)

	// Sweep
	ReleaseAllExpiredHolds(ctx context.Context) (SweepResult, error)
}

type seatService struct {
	repo    *repository.Repository
	clock   clock.Clock
	holdTTL time.Duration
	log     *zap.Logger
}

func NewSeatService(repo *repository.Repository, clk clock.Clock, holdTTL time.Duration, log *zap.Logger) SeatService {
	return &seatService{
		repo:    repo,
		clock:   clk,
		holdTTL: holdTTL,
		log:     log.With(zap.String("service", "seat")),
	}
}

func (s *seatService) GetSeats(ctx context.Context, showtimeID string) ([]response.SeatResponse, error) {
	id, err := parseID("showtime", showtimeID)
	if err != nil {
		return nil, err
	}

	detail, err := s.repo.Showtime.FindDetailByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get showtime %s: %w", id, err)
	}
	if detail == nil {
		return nil, fmt.Errorf("showtime %s: %w", id, utils.ErrNotFound)
	}

	seats, err := s.repo.Seat.FindByShowtimeID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get seats: %w", err)
	}

	return response.SeatsToResponse(seats), nil
}

func (s *seatService) SelectSeats(ctx context.Context, req *request.SelectSeatsRequest) ([]response.SeatResponse, error) {
	if err := validateRequest(s.log, "Select seats", req); err != nil {
		return nil, err
	}

	ids, err := parseIDs("seat", req.SeatIDs)
	if err != nil {
		return nil, err
	}

	seats, err := s.HoldSeats(ctx, ids)
	if err != nil {
		return nil, err
	}

	return response.SeatsToResponse(seats), nil
}

func (s *seatService) HoldSeats(ctx context.Context, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	seatIDs = dedupeIDs(seatIDs)
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("at least one seat is required: %w", utils.ErrInvalidArgument)
	}

	var held []*entity.Seat
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		seats, err := s.repo.Seat.FindByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return err
		}

		if err := checkSelectable(seatIDs, seats); err != nil {
			return err
		}

		now := s.clock.Now()
		count, err := s.repo.Seat.Hold(ctx, seatIDs, now)
		if err != nil {
			return err
		}
		if count != int64(len(seatIDs)) {
			return fmt.Errorf("held %d of %d seats: %w", count, len(seatIDs), utils.ErrConflict)
		}

		for _, seat := range seats {
			reservedAt := now
			seat.Status = entity.SeatStatusUnconfirmed
			seat.ReservedAt = &reservedAt
			seat.UpdatedAt = now
		}
		held = seats
		return nil
	})
	if err != nil {
		s.log.Warn("Failed to hold seats",
			zap.Error(err),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("hold seats: %w", err)
	}

	s.log.Info("Seats held",
		zap.Int("seat_count", len(held)),
		zap.String("showtime_id", held[0].ShowtimeID.String()),
	)

	return held, nil
}

// checkSelectable runs every check a hold needs on the locked rows.
func checkSelectable(requested []uuid.UUID, seats []*entity.Seat) error {
	found := make(map[uuid.UUID]*entity.Seat, len(seats))
	for _, seat := range seats {
		found[seat.ID] = seat
	}

	var missing []string
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("seats not found: %s: %w", strings.Join(missing, ", "), utils.ErrNotFound)
	}

	showtimeID := seats[0].ShowtimeID
	for _, seat := range seats {
		if seat.ShowtimeID != showtimeID {
			return fmt.Errorf("seats belong to more than one showtime: %w", utils.ErrInvalidArgument)
		}
	}

	for _, seat := range seats {
		switch seat.Status {
		case entity.SeatStatusBooked:
			return fmt.Errorf("seat %s is already booked: %w", seat.SeatNumber, utils.ErrConflict)
		case entity.SeatStatusUnconfirmed:
			return fmt.Errorf("seat %s is already selected and pending confirmation: %w", seat.SeatNumber, utils.ErrConflict)
		}
	}
	return nil
}

func (s *seatService) MarkBooked(ctx context.Context, seatIDs []uuid.UUID, heldAt time.Time) error {
	seatIDs = dedupeIDs(seatIDs)
	if len(seatIDs) == 0 {
		return fmt.Errorf("at least one seat is required: %w", utils.ErrInvalidArgument)
	}

	return s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		seats, err := s.repo.Seat.FindByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return fmt.Errorf("%d of %d seats found: %w", len(seats), len(seatIDs), utils.ErrNotFound)
		}

		for _, seat := range seats {
			if !seat.HeldBy(heldAt) {
				return fmt.Errorf("seat %s is no longer held for this booking: %w", seat.SeatNumber, utils.ErrConflict)
			}
		}

		count, err := s.repo.Seat.MarkBooked(ctx, seatIDs, heldAt, s.clock.Now())
		if err != nil {
			return err
		}
		if count != int64(len(seatIDs)) {
			return fmt.Errorf("booked %d of %d seats: %w", count, len(seatIDs), utils.ErrConflict)
		}
		return nil
	})
}

func (s *seatService) ReleaseExpiredHolds(ctx context.Context, showtimeID uuid.UUID, holdTTL time.Duration) (int, error) {
	var released []uuid.UUID
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		ids, err := s.repo.Seat.ReleaseExpired(ctx, showtimeID, now.Add(-holdTTL), now)
		if err != nil {
			return err
		}
		released = ids
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("release expired holds for showtime %s: %w", showtimeID, err)
	}

	if len(released) > 0 {
		s.log.Info("Expired holds released",
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("seat_count", len(released)),
		)
	}

	return len(released), nil
}

func (s *seatService) ReleaseShowtime(ctx context.Context, showtimeID string) (*response.ReleaseResponse, error) {
	id, err := parseID("showtime", showtimeID)
	if err != nil {
		return nil, err
	}

	released, err := s.ReleaseExpiredHolds(ctx, id, s.holdTTL)
	if err != nil {
		return nil, err
	}

	return &response.ReleaseResponse{ShowtimeID: id.String(), Released: released}, nil
}

func (s *seatService) ReleaseAllExpiredHolds(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	showtimeIDs, err := s.repo.Seat.FindShowtimesWithHolds(ctx)
	if err != nil {
		return result, fmt.Errorf("find showtimes with holds: %w", err)
	}

	for _, showtimeID := range showtimeIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Scanned++

		released, err := s.ReleaseExpiredHolds(ctx, showtimeID, s.holdTTL)
		if err != nil {
			result.Failed++
			s.log.Error("Reservation sweep failed for showtime",
				zap.Error(err),
				zap.String("showtime_id", showtimeID.String()),
			)
			continue
		}
		result.Changed += released
	}

	return result, nil
}

func (s *seatService) CreateInventory(ctx context.Context, showtimeID string, req *request.CreateInventoryRequest) ([]response.SeatResponse, error) {
	if err := validateRequest(s.log, "Create inventory", req); err != nil {
		return nil, err
	}

	id, err := parseID("showtime", showtimeID)
	if err != nil {
		return nil, err
	}

	var seats []*entity.Seat
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		detail, err := s.repo.Showtime.FindDetailByID(ctx, id)
		if err != nil {
			return err
		}
		if detail == nil {
			return fmt.Errorf("showtime %s: %w", id, utils.ErrNotFound)
		}

		existing, err := s.repo.Seat.FindByShowtimeID(ctx, id)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("showtime %s already has %d seats: %w", id, len(existing), utils.ErrConflict)
		}

		seats = layoutSeats(id, req.Rows, req.Columns, s.clock.Now())
		if err := s.repo.Seat.CreateBatch(ctx, seats); err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("seat inventory for showtime %s already exists: %w", id, utils.ErrConflict)
			}
			return err
		}

		return s.repo.Showtime.UpdateTotalSeats(ctx, id, len(seats))
	})
	if err != nil {
		return nil, fmt.Errorf("create seat inventory: %w", err)
	}

	s.log.Info("Seat inventory created",
		zap.String("showtime_id", id.String()),
		zap.Int("rows", req.Rows),
		zap.Int("columns", req.Columns),
	)

	return response.SeatsToResponse(seats), nil
}

// layoutSeats numbers seats A1, A2, ... B1, ... row by row.
func layoutSeats(showtimeID uuid.UUID, rows, columns int, now time.Time) []*entity.Seat {
	seats := make([]*entity.Seat, 0, rows*columns)
	for r := 0; r < rows; r++ {
		row := string(rune('A' + r))
		for c := 1; c <= columns; c++ {
			seats = append(seats, &entity.Seat{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				ShowtimeID: showtimeID,
				SeatNumber: fmt.Sprintf("%s%d", row, c),
				SeatRow:    row,
				SeatColumn: c,
				Status:     entity.SeatStatusAvailable,
			})
		}
	}
	return seats
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
