// Package testutil provides a migrated Postgres for integration tests. Tests
// using it are skipped unless TEST_DATABASE_URL points at a reachable server.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/migrations"
	"cinema-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const truncateAll = `TRUNCATE payments, booking_seats, bookings, seats, showtimes, movies, cinemas, sessions, guests, users CASCADE`

// NewDB opens TEST_DATABASE_URL, applies the migrations and empties every
// table before and after the test.
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, url, 25)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}

	require.NoError(t, migrations.Apply(ctx, db))
	_, err = db.Exec(ctx, truncateAll)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), truncateAll)
		db.Close()
	})
	return db
}

// SeedShowtime inserts a movie, a cinema and one showtime of hall 1.
func SeedShowtime(t *testing.T, db database.Querier, screening time.Time, price float64) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	movieID, cinemaID, showtimeID := uuid.New(), uuid.New(), uuid.New()

	_, err := db.Exec(ctx, `INSERT INTO movies (id, title, price) VALUES ($1, $2, $3)`, movieID, "Dune: Part Two", price)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO cinemas (id, name, city) VALUES ($1, $2, $3)`, cinemaID, "Grand Indonesia", "Jakarta")
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO showtimes (id, movie_id, cinema_id, hall, screening_time) VALUES ($1, $2, $3, 1, $4)`,
		showtimeID, movieID, cinemaID, screening)
	require.NoError(t, err)

	return showtimeID
}

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, db database.Querier, email string, role entity.UserRole) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO users (id, username, email, password, role) VALUES ($1, $2, $3, 'x', $4)`,
		id, email, email, role)
	require.NoError(t, err)
	return id
}
