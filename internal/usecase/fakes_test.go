package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for Postgres. WithTx serializes
// transactions and restores a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users     map[uuid.UUID]entity.User
	guests    map[uuid.UUID]entity.Guest
	showtimes map[uuid.UUID]entity.ShowtimeDetail
	seats     map[uuid.UUID]entity.Seat
	bookings  map[uuid.UUID]entity.Booking
	links     []entity.BookingSeat
	payments  map[uuid.UUID]entity.Payment

	commits int
}

type memSnapshot struct {
	users     map[uuid.UUID]entity.User
	guests    map[uuid.UUID]entity.Guest
	showtimes map[uuid.UUID]entity.ShowtimeDetail
	seats     map[uuid.UUID]entity.Seat
	bookings  map[uuid.UUID]entity.Booking
	links     []entity.BookingSeat
	payments  map[uuid.UUID]entity.Payment
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]entity.User{},
		guests:    map[uuid.UUID]entity.Guest{},
		showtimes: map[uuid.UUID]entity.ShowtimeDetail{},
		seats:     map[uuid.UUID]entity.Seat{},
		bookings:  map[uuid.UUID]entity.Booking{},
		payments:  map[uuid.UUID]entity.Payment{},
	}
}

type memTxKey struct{}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}

	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
	return nil
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		users:     copyMap(m.users),
		guests:    copyMap(m.guests),
		showtimes: copyMap(m.showtimes),
		seats:     copyMap(m.seats),
		bookings:  copyMap(m.bookings),
		links:     append([]entity.BookingSeat(nil), m.links...),
		payments:  copyMap(m.payments),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.users
	m.guests = s.guests
	m.showtimes = s.showtimes
	m.seats = s.seats
	m.bookings = s.bookings
	m.links = s.links
	m.payments = s.payments
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (m *memStore) seat(id uuid.UUID) entity.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[id]
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) payment(id uuid.UUID) entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

// ---- seats

type memSeatRepo struct{ m *memStore }

func (r memSeatRepo) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range seats {
		for _, existing := range r.m.seats {
			if existing.ShowtimeID == s.ShowtimeID && existing.SeatNumber == s.SeatNumber {
				return &pgconn.PgError{Code: "23505"}
			}
		}
		r.m.seats[s.ID] = *s
	}
	return nil
}

func (r memSeatRepo) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Seat
	for _, s := range r.m.seats {
		if s.ShowtimeID == showtimeID {
			c := s
			c.ReservedAt = copyTime(s.ReservedAt)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatRow != out[j].SeatRow {
			return out[i].SeatRow < out[j].SeatRow
		}
		return out[i].SeatColumn < out[j].SeatColumn
	})
	return out, nil
}

func (r memSeatRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*entity.Seat{}
	for _, id := range ids {
		if s, ok := r.m.seats[id]; ok {
			c := s
			c.ReservedAt = copyTime(s.ReservedAt)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r memSeatRepo) Hold(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		s, ok := r.m.seats[id]
		if !ok || s.Status != entity.SeatStatusAvailable {
			continue
		}
		stamp := at
		s.Status = entity.SeatStatusUnconfirmed
		s.ReservedAt = &stamp
		s.UpdatedAt = at
		r.m.seats[id] = s
		n++
	}
	return n, nil
}

func (r memSeatRepo) MarkBooked(ctx context.Context, ids []uuid.UUID, heldAt, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		s, ok := r.m.seats[id]
		if !ok || !s.HeldBy(heldAt) {
			continue
		}
		s.Status = entity.SeatStatusBooked
		s.ReservedAt = nil
		s.UpdatedAt = now
		r.m.seats[id] = s
		n++
	}
	return n, nil
}

func (r memSeatRepo) ReleaseExpired(ctx context.Context, showtimeID uuid.UUID, cutoff, now time.Time) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var released []uuid.UUID
	for id, s := range r.m.seats {
		if s.ShowtimeID != showtimeID || s.Status != entity.SeatStatusUnconfirmed || s.ReservedAt.After(cutoff) {
			continue
		}
		s.Status = entity.SeatStatusAvailable
		s.ReservedAt = nil
		s.UpdatedAt = now
		r.m.seats[id] = s
		released = append(released, id)
	}
	return released, nil
}

func (r memSeatRepo) FindShowtimesWithHolds(ctx context.Context) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, s := range r.m.seats {
		if s.Status == entity.SeatStatusUnconfirmed && !seen[s.ShowtimeID] {
			seen[s.ShowtimeID] = true
			out = append(out, s.ShowtimeID)
		}
	}
	return out, nil
}

func (r memSeatRepo) CountUnavailableByBooking(ctx context.Context, bookingID uuid.UUID) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	count := 0
	for _, l := range r.m.links {
		if l.BookingID != bookingID {
			continue
		}
		if r.m.seats[l.SeatID].Status != entity.SeatStatusAvailable {
			count++
		}
	}
	return count, nil
}

// ---- bookings

type memBookingRepo struct{ m *memStore }

func (r memBookingRepo) withScreening(b entity.Booking) *entity.Booking {
	b.ScreeningTime = r.m.showtimes[b.ShowtimeID].ScreeningTime
	return &b
}

func (r memBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	if err := booking.Owner.Validate(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.bookings[booking.ID] = *booking
	return nil
}

func (r memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	return r.withScreening(b), nil
}

func (r memBookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if b.Owner != entity.UserOwner(userID) {
			continue
		}
		hasSeats := false
		for _, l := range r.m.links {
			if l.BookingID == b.ID {
				hasSeats = true
				break
			}
		}
		if hasSeats {
			out = append(out, r.withScreening(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScreeningTime.After(out[j].ScreeningTime) })
	return out, nil
}

func (r memBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus, now time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b := r.m.bookings[id]
	b.Status = status
	b.UpdatedAt = now
	r.m.bookings[id] = b
	return nil
}

func (r memBookingRepo) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []uuid.UUID
	for id, b := range r.m.bookings {
		if b.Status == entity.BookingStatusPending && !b.CreatedAt.After(cutoff) && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

// ---- booking seats

type memBookingSeatRepo struct{ m *memStore }

func (r memBookingSeatRepo) CreateBatch(ctx context.Context, links []*entity.BookingSeat) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, l := range links {
		r.m.links = append(r.m.links, *l)
	}
	return nil
}

func (r memBookingSeatRepo) FindSeatsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Seat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Seat
	for _, l := range r.m.links {
		if l.BookingID == bookingID {
			s := r.m.seats[l.SeatID]
			s.ReservedAt = copyTime(s.ReservedAt)
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

// ---- payments

type memPaymentRepo struct{ m *memStore }

func (r memPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.payments {
		if existing.BookingID == p.BookingID && existing.Status == entity.PaymentStatusPending {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.m.payments[p.ID] = *p
	return nil
}

func (r memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memPaymentRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r memPaymentRepo) FindPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.payments {
		if p.BookingID == bookingID && p.Status == entity.PaymentStatusPending {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.payments[p.ID] = *p
	return nil
}

func (r memPaymentRepo) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []uuid.UUID
	for id, p := range r.m.payments {
		if p.Status == entity.PaymentStatusPending && !p.CreatedAt.After(cutoff) && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

// ---- catalog and owners

type memShowtimeRepo struct{ m *memStore }

func (r memShowtimeRepo) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.ShowtimeDetail, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.showtimes[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r memShowtimeRepo) UpdateTotalSeats(ctx context.Context, id uuid.UUID, total int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d := r.m.showtimes[id]
	d.TotalSeats = total
	r.m.showtimes[id] = d
	return nil
}

type memUserRepo struct{ m *memStore }

func (r memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, nil
}

type memGuestRepo struct{ m *memStore }

func (r memGuestRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Guest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.guests[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r memGuestRepo) FindByEmail(ctx context.Context, email string) (*entity.Guest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, g := range r.m.guests {
		if g.Email == email {
			return &g, nil
		}
	}
	return nil, nil
}

func (r memGuestRepo) FindOrCreate(ctx context.Context, email string, now time.Time) (*entity.Guest, error) {
	if g, _ := r.FindByEmail(ctx, email); g != nil {
		return g, nil
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g := entity.Guest{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		Email:      strings.ToLower(strings.TrimSpace(email)),
	}
	r.m.guests[g.ID] = g
	return &g, nil
}

// ---- notifier

type sentNotice struct {
	Kind      notify.EventType
	Recipient string
	PaymentID uuid.UUID
	Booking   notify.BookingNotice
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *recordingNotifier) record(s sentNotice) {
	n.mu.Lock()
	n.sent = append(n.sent, s)
	n.mu.Unlock()
}

func (n *recordingNotifier) SendBookingConfirmation(ctx context.Context, notice notify.BookingNotice) {
	n.record(sentNotice{Kind: notify.EventBookingConfirmed, Recipient: notice.Recipient, Booking: notice})
}

func (n *recordingNotifier) SendCancellationEmail(ctx context.Context, notice notify.BookingNotice) {
	n.record(sentNotice{Kind: notify.EventBookingCancelled, Recipient: notice.Recipient, Booking: notice})
}

func (n *recordingNotifier) SendReminder(ctx context.Context, notice notify.BookingNotice) {
	n.record(sentNotice{Kind: notify.EventBookingReminder, Recipient: notice.Recipient, Booking: notice})
}

func (n *recordingNotifier) SendPaymentConfirmation(ctx context.Context, recipient string, paymentID uuid.UUID) {
	n.record(sentNotice{Kind: notify.EventPaymentSucceeded, Recipient: recipient, PaymentID: paymentID})
}

func (n *recordingNotifier) SendRefundNotification(ctx context.Context, recipient string, paymentID uuid.UUID) {
	n.record(sentNotice{Kind: notify.EventPaymentRefunded, Recipient: recipient, PaymentID: paymentID})
}

func (n *recordingNotifier) kinds() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.EventType, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.Kind
	}
	return out
}

func (n *recordingNotifier) last() sentNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// ---- fixture

// monday10 is Monday 2026-03-02 10:00 UTC.
var monday10 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	t        *testing.T
	store    *memStore
	clock    *clock.Fixed
	notifier *recordingNotifier
	service  *Service
	config   *utils.Config
}

func testConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{Timezone: "UTC"},
		Booking: utils.BookingConfig{
			HoldTTL:              10 * time.Minute,
			PaymentWindow:        120 * time.Second,
			RefundCutoff:         24 * time.Hour,
			WeekendMarkupPercent: 20,
		},
		Sweep: utils.SweepConfig{
			ReservationInterval: 10 * time.Second,
			PaymentInterval:     10 * time.Second,
			BookingInterval:     10 * time.Second,
			BatchSize:           100,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	clk := clock.NewFixed(monday10)
	notifier := &recordingNotifier{}
	config := testConfig()

	repo := &repository.Repository{
		Tx:          store,
		User:        memUserRepo{store},
		Guest:       memGuestRepo{store},
		Showtime:    memShowtimeRepo{store},
		Seat:        memSeatRepo{store},
		Booking:     memBookingRepo{store},
		BookingSeat: memBookingSeatRepo{store},
		Payment:     memPaymentRepo{store},
	}

	service, err := NewService(repo, config, notifier, clk, zap.NewNop())
	require.NoError(t, err)

	return &fixture{
		t:        t,
		store:    store,
		clock:    clk,
		notifier: notifier,
		service:  service,
		config:   config,
	}
}

func (f *fixture) addUser(email string, role entity.UserRole) uuid.UUID {
	id := uuid.New()
	f.store.users[id] = entity.User{
		Base:     entity.Base{ID: id, CreatedAt: monday10, UpdatedAt: monday10},
		Username: strings.Split(email, "@")[0],
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	return id
}

// addShowtime schedules a showtime with seats A1..A<n>, all AVAILABLE.
func (f *fixture) addShowtime(screening time.Time, basePrice float64, n int) (uuid.UUID, []uuid.UUID) {
	id := uuid.New()
	f.store.showtimes[id] = entity.ShowtimeDetail{
		Showtime: entity.Showtime{
			Base:          entity.Base{ID: id, CreatedAt: monday10, UpdatedAt: monday10},
			MovieID:       uuid.New(),
			CinemaID:      uuid.New(),
			Hall:          3,
			ScreeningTime: screening,
			TotalSeats:    n,
		},
		MovieTitle: "Dune: Part Two",
		BasePrice:  basePrice,
		CinemaName: "Absolute Cinema Central",
	}

	seats := layoutSeats(id, 1, n, monday10)
	ids := make([]uuid.UUID, len(seats))
	for i, s := range seats {
		f.store.seats[s.ID] = *s
		ids[i] = s.ID
	}
	return id, ids
}

func (f *fixture) user(id uuid.UUID) Requester {
	return Requester{Owner: entity.UserOwner(id)}
}

func idStrings(ids ...uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
