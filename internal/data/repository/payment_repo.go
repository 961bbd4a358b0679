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

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error

	// Sweep queries
	FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, booking_id, amount, method, status, created_at, updated_at`

// Create returns an error matching database.IsUniqueViolation when the
// booking already has a PENDING payment.
func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID, err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (r *paymentRepository) FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 AND status = 'PENDING'`, bookingID)
}

func (r *paymentRepository) findOne(ctx context.Context, query string, arg uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment",
			zap.Error(err),
			zap.String("id", arg.String()),
		)
		return nil, fmt.Errorf("find payment %s: %w", arg, err)
	}

	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `UPDATE payments SET method = $2, status = $3, updated_at = $4 WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		payment.ID,
		payment.Method,
		payment.Status,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update payment",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", string(payment.Status)),
		)
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", payment.ID)
	}

	return nil
}

func (r *paymentRepository) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM payments
		WHERE status = 'PENDING' AND created_at <= $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to find expired payments", zap.Error(err))
		return nil, fmt.Errorf("find expired payments: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan expired payment ids: %w", err)
	}
	return ids, nil
}
