package usecase

import (
	"context"
	"fmt"
	"strings"

	"cinema-ticketing/internal/data/entity"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Requester is the identity acting on a booking or payment.
type Requester struct {
	Owner entity.Owner
	Admin bool
}

// CanAccess reports whether the requester may act on something owned by owner.
func (r Requester) CanAccess(owner entity.Owner) bool {
	return r.Admin || r.Owner == owner
}

type OwnerService interface {
	// ResolveBooker returns the owner for a new booking, creating the guest on first use.
	ResolveBooker(ctx context.Context, userID *uuid.UUID, guestEmail string) (entity.Owner, error)
	// Identify looks up an existing requester without creating anything.
	Identify(ctx context.Context, userID *uuid.UUID, guestEmail string) (Requester, error)
	RecipientEmail(ctx context.Context, owner entity.Owner) (string, error)
}

type ownerService struct {
	repo  *repository.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewOwnerService(repo *repository.Repository, clk clock.Clock, log *zap.Logger) OwnerService {
	return &ownerService{
		repo:  repo,
		clock: clk,
		log:   log.With(zap.String("service", "owner")),
	}
}

func (s *ownerService) ResolveBooker(ctx context.Context, userID *uuid.UUID, guestEmail string) (entity.Owner, error) {
	if userID != nil {
		user, err := s.activeUser(ctx, *userID)
		if err != nil {
			return entity.Owner{}, err
		}
		return entity.UserOwner(user.ID), nil
	}

	email := strings.TrimSpace(guestEmail)
	if email == "" {
		return entity.Owner{}, fmt.Errorf("bearer token or guest email required: %w", utils.ErrUnauthenticated)
	}

	registered, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return entity.Owner{}, fmt.Errorf("check registered email: %w", err)
	}
	if registered != nil {
		s.log.Warn("Guest email belongs to registered user", zap.String("email", email))
		return entity.Owner{}, fmt.Errorf("email %s belongs to a registered user, please log in: %w", email, utils.ErrConflict)
	}

	guest, err := s.repo.Guest.FindOrCreate(ctx, email, s.clock.Now())
	if err != nil {
		return entity.Owner{}, fmt.Errorf("resolve guest %s: %w", email, err)
	}
	return entity.GuestOwner(guest.ID), nil
}

func (s *ownerService) Identify(ctx context.Context, userID *uuid.UUID, guestEmail string) (Requester, error) {
	if userID != nil {
		user, err := s.activeUser(ctx, *userID)
		if err != nil {
			return Requester{}, err
		}
		return Requester{Owner: entity.UserOwner(user.ID), Admin: user.Role == entity.RoleAdmin}, nil
	}

	email := strings.TrimSpace(guestEmail)
	if email == "" {
		return Requester{}, fmt.Errorf("bearer token or guest email required: %w", utils.ErrUnauthenticated)
	}

	guest, err := s.repo.Guest.FindByEmail(ctx, email)
	if err != nil {
		return Requester{}, fmt.Errorf("find guest %s: %w", email, err)
	}
	if guest == nil {
		return Requester{}, fmt.Errorf("no bookings for guest %s: %w", email, utils.ErrForbidden)
	}
	return Requester{Owner: entity.GuestOwner(guest.ID)}, nil
}

func (s *ownerService) RecipientEmail(ctx context.Context, owner entity.Owner) (string, error) {
	switch owner.Kind {
	case entity.OwnerUser:
		user, err := s.repo.User.FindByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", fmt.Errorf("user %s: %w", owner.ID, utils.ErrNotFound)
		}
		return user.Email, nil
	case entity.OwnerGuest:
		guest, err := s.repo.Guest.FindByID(ctx, owner.ID)
		if err != nil {
			return "", err
		}
		if guest == nil {
			return "", fmt.Errorf("guest %s: %w", owner.ID, utils.ErrNotFound)
		}
		return guest.Email, nil
	default:
		return "", fmt.Errorf("unknown owner kind %q", owner.Kind)
	}
}

func (s *ownerService) activeUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	if user == nil || !user.IsActive || user.DeletedAt != nil {
		return nil, fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
	}
	return user, nil
}
