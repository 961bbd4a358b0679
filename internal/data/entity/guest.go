package entity

// Guest is a customer identified only by email.
type Guest struct {
	BaseSimple
	Email string `db:"email"`
}
