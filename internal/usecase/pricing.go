package usecase

import (
	"time"

	"cinema-ticketing/pkg/utils"
)

const weekendNightHour = 18

// PricingPolicy prices one seat of a screening. Friday to Sunday screenings
// starting at or after 18:00 local time carry the markup.
type PricingPolicy struct {
	Location      *time.Location
	MarkupPercent int64
}

// PriceCents returns the seat price in cents, rounded half up.
func (p PricingPolicy) PriceCents(basePrice float64, screening time.Time) int64 {
	cents := utils.ToCents(basePrice)
	if !p.isWeekendNight(screening) || p.MarkupPercent == 0 {
		return cents
	}
	return (cents*(100+p.MarkupPercent) + 50) / 100
}

func (p PricingPolicy) Price(basePrice float64, screening time.Time) float64 {
	return utils.FromCents(p.PriceCents(basePrice, screening))
}

func (p PricingPolicy) isWeekendNight(screening time.Time) bool {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := screening.In(loc)
	switch local.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return local.Hour() >= weekendNightHour
	default:
		return false
	}
}
