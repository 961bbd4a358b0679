package entity

import (
	"fmt"

	"github.com/google/uuid"
)

type OwnerKind string

const (
	OwnerUser  OwnerKind = "user"
	OwnerGuest OwnerKind = "guest"
)

// Owner is either a registered user or a guest, never both.
type Owner struct {
	Kind OwnerKind
	ID   uuid.UUID
}

func UserOwner(id uuid.UUID) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

func GuestOwner(id uuid.UUID) Owner {
	return Owner{Kind: OwnerGuest, ID: id}
}

func (o Owner) Validate() error {
	if o.ID == uuid.Nil {
		return fmt.Errorf("owner id is empty")
	}
	switch o.Kind {
	case OwnerUser, OwnerGuest:
		return nil
	default:
		return fmt.Errorf("unknown owner kind %q", o.Kind)
	}
}

// Columns splits the owner into the (user_id, guest_id) column pair.
func (o Owner) Columns() (userID, guestID *uuid.UUID) {
	id := o.ID
	if o.Kind == OwnerUser {
		return &id, nil
	}
	return nil, &id
}

// OwnerFromColumns is the inverse of Columns.
func OwnerFromColumns(userID, guestID *uuid.UUID) (Owner, error) {
	switch {
	case userID != nil && guestID == nil:
		return UserOwner(*userID), nil
	case guestID != nil && userID == nil:
		return GuestOwner(*guestID), nil
	default:
		return Owner{}, fmt.Errorf("booking must have exactly one of user_id, guest_id")
	}
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + o.ID.String()
}
