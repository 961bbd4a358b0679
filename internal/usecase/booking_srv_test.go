package usecase

import (
	"context"
	"testing"
	"time"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/dto/request"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fridayNight is Friday 2026-03-06 20:00 UTC.
var fridayNight = time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("prices weekend night seats with markup and locks them in", func(t *testing.T) {
		f := newFixture(t)
		userID := f.addUser("rina@example.com", entity.RoleCustomer)
		showtimeID, seats := f.addShowtime(fridayNight, 10.00, 3)

		resp, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{
			SeatIDs: idStrings(seats[0], seats[1]),
		})
		require.NoError(t, err)
		assert.Equal(t, 24.00, resp.TotalPrice)
		assert.Equal(t, entity.BookingStatusPending, resp.Status)
		assert.ElementsMatch(t, []string{"A1", "A2"}, resp.SeatNumbers)
		assert.Equal(t, "Dune: Part Two", resp.MovieTitle)

		bookingID := uuid.MustParse(resp.ID)
		stored := f.store.booking(bookingID)
		assert.True(t, stored.CreatedAt.Equal(*f.store.seat(seats[0]).ReservedAt))

		// Catalog price change after booking does not move the total
		detail := f.store.showtimes[showtimeID]
		detail.BasePrice = 99
		f.store.showtimes[showtimeID] = detail

		got, err := f.service.Booking.GetBooking(ctx, f.user(userID), bookingID.String())
		require.NoError(t, err)
		assert.Equal(t, 24.00, got.TotalPrice)
	})

	t.Run("weekday screening has no markup", func(t *testing.T) {
		f := newFixture(t)
		userID := f.addUser("rina@example.com", entity.RoleCustomer)
		_, seats := f.addShowtime(monday10.Add(10*time.Hour), 10.00, 1)

		resp, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{
			SeatIDs: idStrings(seats...),
		})
		require.NoError(t, err)
		assert.Equal(t, 10.00, resp.TotalPrice)
	})

	t.Run("started screening rolls the hold back", func(t *testing.T) {
		f := newFixture(t)
		userID := f.addUser("rina@example.com", entity.RoleCustomer)
		_, seats := f.addShowtime(monday10.Add(-time.Hour), 10.00, 1)

		_, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{
			SeatIDs: idStrings(seats...),
		})
		require.ErrorIs(t, err, utils.ErrInvalidState)
		assert.Equal(t, entity.SeatStatusAvailable, f.store.seat(seats[0]).Status)
		assert.Empty(t, f.store.bookings)
	})

	t.Run("taken seat conflicts without creating a booking", func(t *testing.T) {
		f := newFixture(t)
		userID := f.addUser("rina@example.com", entity.RoleCustomer)
		_, seats := f.addShowtime(fridayNight, 10.00, 2)

		_, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{SeatIDs: idStrings(seats[0])})
		require.NoError(t, err)

		_, err = f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{SeatIDs: idStrings(seats...)})
		require.ErrorIs(t, err, utils.ErrConflict)
		assert.Len(t, f.store.bookings, 1)
		assert.Equal(t, entity.SeatStatusAvailable, f.store.seat(seats[1]).Status)
	})

	t.Run("owner is required", func(t *testing.T) {
		f := newFixture(t)
		_, seats := f.addShowtime(fridayNight, 10.00, 1)

		_, err := f.service.Booking.CreateBooking(ctx, entity.Owner{}, &request.CreateBookingRequest{SeatIDs: idStrings(seats...)})
		assert.ErrorIs(t, err, utils.ErrUnauthenticated)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.addUser("rina@example.com", entity.RoleCustomer)
	otherID := f.addUser("budi@example.com", entity.RoleCustomer)
	adminID := f.addUser("admin@example.com", entity.RoleAdmin)
	_, seats := f.addShowtime(fridayNight, 10.00, 1)

	resp, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{SeatIDs: idStrings(seats...)})
	require.NoError(t, err)

	err = f.service.Booking.CancelBooking(ctx, f.user(otherID), resp.ID)
	require.ErrorIs(t, err, utils.ErrForbidden)

	err = f.service.Booking.CancelBooking(ctx, f.user(userID), uuid.NewString())
	require.ErrorIs(t, err, utils.ErrNotFound)

	require.NoError(t, f.service.Booking.CancelBooking(ctx, f.user(userID), resp.ID))
	assert.Equal(t, entity.BookingStatusCancelled, f.store.booking(uuid.MustParse(resp.ID)).Status)
	// Seats are left to the reservation sweep
	assert.Equal(t, entity.SeatStatusUnconfirmed, f.store.seat(seats[0]).Status)

	sent := f.notifier.last()
	assert.Equal(t, notify.EventBookingCancelled, sent.Kind)
	assert.Equal(t, "rina@example.com", sent.Recipient)
	assert.Equal(t, []string{"A1"}, sent.Booking.SeatNumbers)

	// Cancelling twice succeeds without another notification
	admin := Requester{Owner: entity.UserOwner(adminID), Admin: true}
	require.NoError(t, f.service.Booking.CancelBooking(ctx, admin, resp.ID))
	assert.Len(t, f.notifier.kinds(), 1)
}

func TestBookingService_ResendConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.addUser("rina@example.com", entity.RoleCustomer)
	_, seats := f.addShowtime(fridayNight, 10.00, 1)

	booking, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(userID), &request.CreateBookingRequest{SeatIDs: idStrings(seats...)})
	require.NoError(t, err)

	err = f.service.Booking.ResendConfirmation(ctx, f.user(userID), booking.ID)
	require.ErrorIs(t, err, utils.ErrInvalidState)

	payment, err := f.service.Payment.CreatePayment(ctx, f.user(userID), &request.CreatePaymentRequest{BookingID: booking.ID})
	require.NoError(t, err)
	_, err = f.service.Payment.MakePayment(ctx, f.user(userID), &request.MakePaymentRequest{
		PaymentID: payment.ID, Method: "CREDIT_CARD", Amount: booking.TotalPrice,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Booking.ResendConfirmation(ctx, f.user(userID), booking.ID))
	sent := f.notifier.last()
	assert.Equal(t, notify.EventBookingReminder, sent.Kind)
	assert.Equal(t, "CONFIRMED", sent.Booking.Status)
	assert.Equal(t, 3, sent.Booking.Hall)
}

func TestBookingService_History(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.addUser("rina@example.com", entity.RoleCustomer)
	owner := entity.UserOwner(userID)

	_, tomorrowSeats := f.addShowtime(monday10.Add(24*time.Hour), 10, 1)   // Tue 03
	_, fridaySeats := f.addShowtime(fridayNight, 10, 1)                    // Fri 06
	_, nextWeekSeats := f.addShowtime(monday10.Add(8*24*time.Hour), 10, 1) // Tue 10

	book := func(seat uuid.UUID) string {
		resp, err := f.service.Booking.CreateBooking(ctx, owner, &request.CreateBookingRequest{SeatIDs: idStrings(seat)})
		require.NoError(t, err)
		return resp.ID
	}
	tomorrow := book(tomorrowSeats[0])
	friday := book(fridaySeats[0])
	nextWeek := book(nextWeekSeats[0])
	require.NoError(t, f.service.Booking.CancelBooking(ctx, f.user(userID), nextWeek))

	// Someone else's booking never shows up
	otherID := f.addUser("budi@example.com", entity.RoleCustomer)
	_, otherSeats := f.addShowtime(fridayNight, 10, 1)
	_, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(otherID), &request.CreateBookingRequest{SeatIDs: idStrings(otherSeats...)})
	require.NoError(t, err)

	page := func(req *request.BookingHistoryRequest) []string {
		if req.Page == 0 {
			req.PaginatedRequest = request.PaginatedRequest{Page: 1, PerPage: 10}
		}
		resp, err := f.service.Booking.GetUserBookingHistory(ctx, userID, req)
		require.NoError(t, err)
		ids := make([]string, len(resp.Data))
		for i, b := range resp.Data {
			ids[i] = b.ID
		}
		return ids
	}
	date := func(s string) *time.Time {
		d, err := utils.ParseDate(s, time.UTC)
		require.NoError(t, err)
		return d
	}

	assert.Equal(t, []string{nextWeek, friday, tomorrow}, page(&request.BookingHistoryRequest{}))
	assert.Equal(t, []string{friday, tomorrow}, page(&request.BookingHistoryRequest{From: date("2026-03-03"), To: date("2026-03-06")}))
	assert.Equal(t, []string{friday}, page(&request.BookingHistoryRequest{From: date("2026-03-06"), To: date("2026-03-06")}))

	cancelled := entity.BookingStatusCancelled
	assert.Equal(t, []string{nextWeek}, page(&request.BookingHistoryRequest{Status: &cancelled}))

	paged, err := f.service.Booking.GetUserBookingHistory(ctx, userID, &request.BookingHistoryRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 2, PerPage: 2},
	})
	require.NoError(t, err)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, tomorrow, paged.Data[0].ID)
	assert.Equal(t, int64(3), paged.Pagination.Total)
	assert.Equal(t, 2, paged.Pagination.TotalPages)
	assert.True(t, paged.Pagination.HasPrev)
	assert.False(t, paged.Pagination.HasNext)

	// Far past the last page is empty, not a slice panic
	beyond, err := f.service.Booking.GetUserBookingHistory(ctx, userID, &request.BookingHistoryRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 3<<60 + 1, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, int64(3), beyond.Pagination.Total)
	assert.False(t, beyond.Pagination.HasNext)

	_, err = f.service.Booking.GetUserBookingHistory(ctx, userID, &request.BookingHistoryRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		From:             date("2026-03-06"),
		To:               date("2026-03-03"),
	})
	assert.ErrorIs(t, err, utils.ErrInvalidArgument)

	upcoming, err := f.service.Booking.GetUpcomingBookings(ctx, userID)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, tomorrow, upcoming[0].ID)
	assert.Equal(t, friday, upcoming[1].ID)

	// Move past Tuesday's screening
	f.clock.Set(monday10.Add(30 * time.Hour))
	past, err := f.service.Booking.GetPastBookings(ctx, userID)
	require.NoError(t, err)
	require.Len(t, past, 2)
	assert.Equal(t, nextWeek, past[0].ID)
	assert.Equal(t, tomorrow, past[1].ID)
}

func TestBookingService_CancelAbandonedBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.addUser("rina@example.com", entity.RoleCustomer)
	owner := entity.UserOwner(userID)
	_, seats := f.addShowtime(fridayNight, 10, 3)

	abandoned, err := f.service.Booking.CreateBooking(ctx, owner, &request.CreateBookingRequest{SeatIDs: idStrings(seats[0])})
	require.NoError(t, err)
	reheld, err := f.service.Booking.CreateBooking(ctx, owner, &request.CreateBookingRequest{SeatIDs: idStrings(seats[1])})
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	fresh, err := f.service.Booking.CreateBooking(ctx, owner, &request.CreateBookingRequest{SeatIDs: idStrings(seats[2])})
	require.NoError(t, err)

	// Not old enough yet
	result, err := f.service.Booking.CancelAbandonedBookings(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Scanned)

	f.clock.Advance(6 * time.Minute)
	_, err = f.service.Seat.ReleaseAllExpiredHolds(ctx)
	require.NoError(t, err)

	// Another customer picks seats[1] up again under a new hold
	otherID := f.addUser("dewi@example.com", entity.RoleCustomer)
	rehold, err := f.service.Booking.CreateBooking(ctx, entity.UserOwner(otherID), &request.CreateBookingRequest{SeatIDs: idStrings(seats[1])})
	require.NoError(t, err)

	result, err = f.service.Booking.CancelAbandonedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Changed)

	assert.Equal(t, entity.BookingStatusCancelled, f.store.booking(uuid.MustParse(abandoned.ID)).Status)
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(uuid.MustParse(reheld.ID)).Status,
		"seat re-held by someone else is not AVAILABLE")
	assert.Equal(t, entity.BookingStatusPending, f.store.booking(uuid.MustParse(fresh.ID)).Status)

	// Once the second hold lapses too, every seat is AVAILABLE again
	f.clock.Advance(11 * time.Minute)
	_, err = f.service.Seat.ReleaseAllExpiredHolds(ctx)
	require.NoError(t, err)

	result, err = f.service.Booking.CancelAbandonedBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Changed)
	assert.Equal(t, entity.BookingStatusCancelled, f.store.booking(uuid.MustParse(reheld.ID)).Status)
	assert.Equal(t, entity.BookingStatusCancelled, f.store.booking(uuid.MustParse(rehold.ID)).Status)
	assert.Equal(t, entity.BookingStatusCancelled, f.store.booking(uuid.MustParse(fresh.ID)).Status)

	// Second pass finds nothing to do
	result, err = f.service.Booking.CancelAbandonedBookings(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Changed)
}
