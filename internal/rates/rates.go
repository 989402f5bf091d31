package rates

import "context"

// PairUSDGHS is the only corridor offered today.
const PairUSDGHS = "USD/GHS"

// DefaultUSDGHS is the pinned rate used until a live feed is integrated.
const DefaultUSDGHS = 11.25

// Provider supplies the current exchange rate for a currency pair. A live FX
// feed is an external collaborator; the core only depends on this contract.
type Provider interface {
	CurrentRate(ctx context.Context, pair string) (float64, error)
}

// Static always returns a fixed rate.
type Static struct {
	Rate float64
}

// NewStatic builds a provider pinned to the given rate, defaulting to the
// USD/GHS constant when zero.
func NewStatic(rate float64) Static {
	if rate == 0 {
		rate = DefaultUSDGHS
	}
	return Static{Rate: rate}
}

// CurrentRate returns the pinned rate for any pair.
func (s Static) CurrentRate(_ context.Context, _ string) (float64, error) {
	return s.Rate, nil
}
