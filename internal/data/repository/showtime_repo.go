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

// ShowtimeRepository is the read side of the catalog the engine depends on.
type ShowtimeRepository interface {
	FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.ShowtimeDetail, error)
	UpdateTotalSeats(ctx context.Context, id uuid.UUID, total int) error
}

type showtimeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowtimeRepository(db database.PgxIface, log *zap.Logger) ShowtimeRepository {
	return &showtimeRepository{
		db:  db,
		log: log.With(zap.String("repository", "showtime")),
	}
}

func (r *showtimeRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.ShowtimeDetail, error) {
	query := `
		SELECT st.id, st.movie_id, st.cinema_id, st.hall, st.screening_time, st.total_seats,
		       st.created_at, st.updated_at, m.title, m.price, c.name
		FROM showtimes st
		JOIN movies m ON m.id = st.movie_id
		JOIN cinemas c ON c.id = st.cinema_id
		WHERE st.id = $1
	`

	var detail entity.ShowtimeDetail
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.MovieID,
		&detail.CinemaID,
		&detail.Hall,
		&detail.ScreeningTime,
		&detail.TotalSeats,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.MovieTitle,
		&detail.BasePrice,
		&detail.CinemaName,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showtime by ID",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("find showtime by ID %s: %w", id, err)
	}

	return &detail, nil
}

func (r *showtimeRepository) UpdateTotalSeats(ctx context.Context, id uuid.UUID, total int) error {
	query := `UPDATE showtimes SET total_seats = $2, updated_at = NOW() WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id, total)
	if err != nil {
		r.log.Error("Failed to update showtime seat count",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return fmt.Errorf("update showtime %s total seats: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("showtime %s not found", id)
	}

	return nil
}
