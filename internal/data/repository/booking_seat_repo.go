package repository

import (
	"context"
	"fmt"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingSeatRepository interface {
	CreateBatch(ctx context.Context, bookingSeats []*entity.BookingSeat) error
	FindSeatsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Seat, error)
}

type bookingSeatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingSeatRepository(db database.PgxIface, log *zap.Logger) BookingSeatRepository {
	return &bookingSeatRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_seat")),
	}
}

func (r *bookingSeatRepository) CreateBatch(ctx context.Context, bookingSeats []*entity.BookingSeat) error {
	if len(bookingSeats) == 0 {
		return nil
	}

	query := `
		INSERT INTO booking_seats (id, booking_id, seat_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, bs := range bookingSeats {
		batch.Queue(query, bs.ID, bs.BookingID, bs.SeatID, bs.CreatedAt)
	}

	var err error
	if tx := database.TxFromContext(ctx); tx != nil {
		err = tx.SendBatch(ctx, batch).Close()
	} else {
		for _, bs := range bookingSeats {
			if _, err = r.db.Exec(ctx, query, bs.ID, bs.BookingID, bs.SeatID, bs.CreatedAt); err != nil {
				break
			}
		}
	}

	if err != nil {
		r.log.Error("Failed to create booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingSeats[0].BookingID.String()),
			zap.Int("count", len(bookingSeats)),
		)
		return fmt.Errorf("create booking seats for booking %s: %w", bookingSeats[0].BookingID, err)
	}

	return nil
}

// FindSeatsByBookingID returns the seats linked to the booking in seat order.
func (r *bookingSeatRepository) FindSeatsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT s.id, s.showtime_id, s.seat_number, s.seat_row, s.seat_column, s.status,
		       s.reserved_at, s.created_at, s.updated_at
		FROM booking_seats bs
		JOIN seats s ON s.id = bs.seat_id
		WHERE bs.booking_id = $1
		ORDER BY s.seat_row, s.seat_column
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find seats by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find seats by booking ID %s: %w", bookingID, err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.ShowtimeID,
			&seat.SeatNumber,
			&seat.SeatRow,
			&seat.SeatColumn,
			&seat.Status,
			&seat.ReservedAt,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking seat row", zap.Error(err))
			return nil, fmt.Errorf("scan booking seat row: %w", err)
		}
		seats = append(seats, &seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking seat rows: %w", err)
	}

	return seats, nil
}
