package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPricingPolicy_PriceCents(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	policy := PricingPolicy{Location: time.UTC, MarkupPercent: 20}

	tests := []struct {
		name      string
		policy    PricingPolicy
		base      float64
		screening time.Time
		want      int64
	}{
		{"friday 20:00 carries markup", policy, 10.00, time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC), 1200},
		{"friday 18:00 boundary carries markup", policy, 10.00, time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC), 1200},
		{"friday 17:59 is regular", policy, 10.00, time.Date(2026, 3, 6, 17, 59, 0, 0, time.UTC), 1000},
		{"sunday night carries markup", policy, 8.50, time.Date(2026, 3, 8, 21, 30, 0, 0, time.UTC), 1020},
		{"monday night is regular", policy, 10.00, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), 1000},
		{"thursday night is regular", policy, 10.00, time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC), 1000},
		{"rounds half up", policy, 0.99, time.Date(2026, 3, 7, 19, 0, 0, 0, time.UTC), 119},
		{"no markup configured", PricingPolicy{Location: time.UTC}, 10.00, time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC), 1000},
		// 12:00 UTC Friday is 19:00 in WIB
		{"uses configured time zone", PricingPolicy{Location: jakarta, MarkupPercent: 20}, 10.00, time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC), 1200},
		{"thursday late UTC is friday morning WIB", PricingPolicy{Location: jakarta, MarkupPercent: 20}, 10.00, time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.PriceCents(tt.base, tt.screening))
		})
	}
}

func TestPricingPolicy_Price(t *testing.T) {
	policy := PricingPolicy{Location: time.UTC, MarkupPercent: 20}
	assert.Equal(t, 12.00, policy.Price(10.00, time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)))
}
