package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDigitalWallet
}

type Payment struct {
	Base
	BookingID uuid.UUID      `db:"booking_id"`
	Amount    float64        `db:"amount"`
	Method    *PaymentMethod `db:"method"`
	Status    PaymentStatus  `db:"status"`
}
