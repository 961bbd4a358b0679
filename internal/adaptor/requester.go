package adaptor

import (
	"net/http"

	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/pkg/utils"

	"github.com/google/uuid"
)

// userFromRequest returns the user set by the auth middleware, if any.
func userFromRequest(r *http.Request) *uuid.UUID {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &userID
}

// identify resolves who is acting: the bearer user first, then the guest email.
func identify(r *http.Request, owners usecase.OwnerService, guestEmail string) (usecase.Requester, error) {
	return owners.Identify(r.Context(), userFromRequest(r), guestEmail)
}
