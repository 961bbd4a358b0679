package response

import (
	"time"

	"cinema-ticketing/internal/data/entity"
)

type PaymentResponse struct {
	ID        string                `json:"id"`
	BookingID string                `json:"booking_id"`
	Amount    float64               `json:"amount"`
	Method    *entity.PaymentMethod `json:"method,omitempty"`
	Status    entity.PaymentStatus  `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
}

// PaymentToResponse fills ExpiresAt only while the payment is PENDING.
func PaymentToResponse(payment *entity.Payment, window time.Duration) PaymentResponse {
	resp := PaymentResponse{
		ID:        payment.ID.String(),
		BookingID: payment.BookingID.String(),
		Amount:    payment.Amount,
		Method:    payment.Method,
		Status:    payment.Status,
		CreatedAt: payment.CreatedAt,
	}
	if payment.Status == entity.PaymentStatusPending {
		expiresAt := payment.CreatedAt.Add(window)
		resp.ExpiresAt = &expiresAt
	}
	return resp
}
