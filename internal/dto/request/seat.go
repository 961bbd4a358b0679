package request

type SelectSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" validate:"required,min=1,max=20,dive,uuid"`
}

// CreateInventoryRequest lays out rows A.. with columns 1..N.
type CreateInventoryRequest struct {
	Rows    int `json:"rows" validate:"required,min=1,max=26"`
	Columns int `json:"columns" validate:"required,min=1,max=50"`
}
