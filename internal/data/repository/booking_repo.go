package repository

import (
	"context"
	"fmt"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, now time.Time) error

	// Sweep queries
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingSelect = `
	SELECT b.id, b.user_id, b.guest_id, b.showtime_id, b.total_price, b.status,
	       b.created_at, b.updated_at, st.screening_time
	FROM bookings b
	JOIN showtimes st ON st.id = b.showtime_id
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	if err := booking.Owner.Validate(); err != nil {
		return fmt.Errorf("create booking %s: %w", booking.ID, err)
	}
	userID, guestID := booking.Owner.Columns()

	query := `
		INSERT INTO bookings (id, user_id, guest_id, showtime_id, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		userID,
		guestID,
		booking.ShowtimeID,
		booking.TotalPrice,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.Stringer("owner", booking.Owner),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, bookingSelect+` WHERE b.id = $1`, id)
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, bookingSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id)
}

func (r *bookingRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Booking, error) {
	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

// FindByUserID returns the user's bookings that have at least one seat.
func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Booking, error) {
	query := bookingSelect + `
		WHERE b.user_id = $1
		  AND EXISTS (SELECT 1 FROM booking_seats bs WHERE bs.booking_id = b.id)
		ORDER BY st.screening_time DESC, b.created_at DESC
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, now time.Time) error {
	query := `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, status, now)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID, status, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID)
	}

	return nil
}

func (r *bookingRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM bookings
		WHERE status = 'PENDING' AND created_at <= $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to find pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find pending bookings: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan pending booking ids: %w", err)
	}
	return ids, nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var (
		booking         entity.Booking
		userID, guestID *uuid.UUID
	)
	err := row.Scan(
		&booking.ID,
		&userID,
		&guestID,
		&booking.ShowtimeID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ScreeningTime,
	)
	if err != nil {
		return nil, err
	}

	owner, err := entity.OwnerFromColumns(userID, guestID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID, err)
	}
	booking.Owner = owner

	return &booking, nil
}
