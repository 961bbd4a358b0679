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

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Seat, error)

	// Locking reads/writes, meant to run inside database.Transactor.WithTx
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error)
	Hold(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	MarkBooked(ctx context.Context, ids []uuid.UUID, heldAt, now time.Time) (int64, error)
	ReleaseExpired(ctx context.Context, showtimeID uuid.UUID, cutoff, now time.Time) ([]uuid.UUID, error)

	// Sweep queries
	FindShowtimesWithHolds(ctx context.Context) ([]uuid.UUID, error)
	CountUnavailableByBooking(ctx context.Context, bookingID uuid.UUID) (int, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, showtime_id, seat_number, seat_row, seat_column, status, reserved_at, created_at, updated_at`

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	rows := make([][]any, len(seats))
	for i, seat := range seats {
		rows[i] = []any{
			seat.ID,
			seat.ShowtimeID,
			seat.SeatNumber,
			seat.SeatRow,
			seat.SeatColumn,
			seat.Status,
			seat.ReservedAt,
			seat.CreatedAt,
			seat.UpdatedAt,
		}
	}

	tx, _ := database.Conn(ctx, r.db).(pgx.Tx)
	var err error
	if tx != nil {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"seats"},
			[]string{"id", "showtime_id", "seat_number", "seat_row", "seat_column", "status", "reserved_at", "created_at", "updated_at"},
			pgx.CopyFromRows(rows))
	} else {
		err = r.insertRows(ctx, rows)
	}
	if err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) insertRows(ctx context.Context, rows [][]any) error {
	query := `INSERT INTO seats (` + seatColumns + `) VALUES `
	args := make([]any, 0, len(rows)*9)
	for i, row := range rows {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*9+1, i*9+2, i*9+3, i*9+4, i*9+5, i*9+6, i*9+7, i*9+8, i*9+9)
		args = append(args, row...)
	}
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *seatRepository) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE showtime_id = $1 ORDER BY seat_row, seat_column`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find seats by showtime ID",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("find seats by showtime %s: %w", showtimeID, err)
	}

	return r.scanSeats(rows)
}

// FindByIDsForUpdate locks the rows in id order so competing holders
// always queue in the same sequence.
func (r *seatRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	if len(ids) == 0 {
		return []*entity.Seat{}, nil
	}

	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to lock seats",
			zap.Error(err),
			zap.Int("seat_count", len(ids)),
		)
		return nil, fmt.Errorf("lock seats: %w", err)
	}

	return r.scanSeats(rows)
}

func (r *seatRepository) Hold(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE seats
		SET status = 'UNCONFIRMED', reserved_at = $2, updated_at = $2
		WHERE id = ANY($1) AND status = 'AVAILABLE'
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, ids, at)
	if err != nil {
		r.log.Error("Failed to hold seats",
			zap.Error(err),
			zap.Int("seat_count", len(ids)),
		)
		return 0, fmt.Errorf("hold seats: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkBooked books only the seats still carrying the hold stamped at heldAt.
func (r *seatRepository) MarkBooked(ctx context.Context, ids []uuid.UUID, heldAt, now time.Time) (int64, error) {
	query := `
		UPDATE seats
		SET status = 'BOOKED', reserved_at = NULL, updated_at = $3
		WHERE id = ANY($1) AND status = 'UNCONFIRMED' AND reserved_at = $2
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, ids, heldAt, now)
	if err != nil {
		r.log.Error("Failed to mark seats booked",
			zap.Error(err),
			zap.Int("seat_count", len(ids)),
		)
		return 0, fmt.Errorf("mark seats booked: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *seatRepository) ReleaseExpired(ctx context.Context, showtimeID uuid.UUID, cutoff, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE seats
		SET status = 'AVAILABLE', reserved_at = NULL, updated_at = $3
		WHERE showtime_id = $1 AND status = 'UNCONFIRMED' AND reserved_at <= $2
		RETURNING id
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showtimeID, cutoff, now)
	if err != nil {
		r.log.Error("Failed to release expired holds",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("release expired holds for showtime %s: %w", showtimeID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan released seat ids: %w", err)
	}
	return ids, nil
}

func (r *seatRepository) FindShowtimesWithHolds(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT showtime_id FROM seats WHERE status = 'UNCONFIRMED'`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find showtimes with holds", zap.Error(err))
		return nil, fmt.Errorf("find showtimes with holds: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan showtime ids: %w", err)
	}
	return ids, nil
}

// CountUnavailableByBooking counts the booking's seats that are not AVAILABLE,
// whoever holds or owns them now.
func (r *seatRepository) CountUnavailableByBooking(ctx context.Context, bookingID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM booking_seats bs
		JOIN seats s ON s.id = bs.seat_id
		WHERE bs.booking_id = $1
		  AND s.status <> 'AVAILABLE'
	`

	var count int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, bookingID).Scan(&count); err != nil {
		r.log.Error("Failed to count unavailable seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("count unavailable seats for booking %s: %w", bookingID, err)
	}
	return count, nil
}

func (r *seatRepository) scanSeats(rows pgx.Rows) ([]*entity.Seat, error) {
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
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seat rows: %w", err)
	}

	return seats, nil
}
