package usecase

import (
	"context"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/notify"

	"go.uber.org/zap"
)

// noticeBuilder gathers what a booking notification needs. It runs after
// commit, so failures are logged and the notification is skipped.
type noticeBuilder struct {
	repo   *repository.Repository
	owners OwnerService
	log    *zap.Logger
}

func (b noticeBuilder) recipient(ctx context.Context, owner entity.Owner) (string, bool) {
	email, err := b.owners.RecipientEmail(ctx, owner)
	if err != nil {
		b.log.Warn("Skipping notification, recipient unresolved",
			zap.Error(err),
			zap.Stringer("owner", owner),
		)
		return "", false
	}
	return email, true
}

func (b noticeBuilder) booking(ctx context.Context, booking *entity.Booking) (notify.BookingNotice, bool) {
	email, ok := b.recipient(ctx, booking.Owner)
	if !ok {
		return notify.BookingNotice{}, false
	}

	notice := notify.BookingNotice{
		BookingID:     booking.ID,
		Recipient:     email,
		ScreeningTime: booking.ScreeningTime,
		TotalPrice:    booking.TotalPrice,
		Status:        string(booking.Status),
	}

	detail, err := b.repo.Showtime.FindDetailByID(ctx, booking.ShowtimeID)
	if err != nil {
		b.log.Warn("Notification without showtime detail",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
	} else if detail != nil {
		notice.MovieTitle = detail.MovieTitle
		notice.CinemaName = detail.CinemaName
		notice.Hall = detail.Hall
		notice.ScreeningTime = detail.ScreeningTime
	}

	seats, err := b.repo.BookingSeat.FindSeatsByBookingID(ctx, booking.ID)
	if err != nil {
		b.log.Warn("Notification without seat numbers",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
	}
	for _, seat := range seats {
		notice.SeatNumbers = append(notice.SeatNumbers, seat.SeatNumber)
	}

	return notice, true
}
