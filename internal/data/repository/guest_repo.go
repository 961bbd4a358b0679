package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type GuestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Guest, error)
	FindByEmail(ctx context.Context, email string) (*entity.Guest, error)
	FindOrCreate(ctx context.Context, email string, now time.Time) (*entity.Guest, error)
}

type guestRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewGuestRepository(db database.PgxIface, log *zap.Logger) GuestRepository {
	return &guestRepository{
		db:  db,
		log: log.With(zap.String("repository", "guest")),
	}
}

func (r *guestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Guest, error) {
	return r.findOne(ctx, `SELECT id, email, created_at FROM guests WHERE id = $1`, id)
}

func (r *guestRepository) FindByEmail(ctx context.Context, email string) (*entity.Guest, error) {
	return r.findOne(ctx, `SELECT id, email, created_at FROM guests WHERE email = $1`, normalizeEmail(email))
}

// FindOrCreate is a single upsert so concurrent first bookings by the same
// guest resolve to one row.
func (r *guestRepository) FindOrCreate(ctx context.Context, email string, now time.Time) (*entity.Guest, error) {
	query := `
		INSERT INTO guests (id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at
	`

	var guest entity.Guest
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, uuid.New(), normalizeEmail(email), now).Scan(
		&guest.ID,
		&guest.Email,
		&guest.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert guest", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("find or create guest %s: %w", email, err)
	}

	return &guest, nil
}

func (r *guestRepository) findOne(ctx context.Context, query string, arg any) (*entity.Guest, error) {
	var guest entity.Guest
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&guest.ID,
		&guest.Email,
		&guest.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find guest", zap.Error(err))
		return nil, fmt.Errorf("find guest: %w", err)
	}
	return &guest, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
