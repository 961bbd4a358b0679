package request

type CreatePaymentRequest struct {
	BookingID  string `json:"booking_id" validate:"required,uuid"`
	GuestEmail string `json:"guest_email,omitempty" validate:"omitempty,email"`
}

type MakePaymentRequest struct {
	PaymentID  string  `json:"payment_id" validate:"required,uuid"`
	Method     string  `json:"method" validate:"required,oneof=CREDIT_CARD DIGITAL_WALLET"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	GuestEmail string  `json:"guest_email,omitempty" validate:"omitempty,email"`
}

type RefundRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
}
