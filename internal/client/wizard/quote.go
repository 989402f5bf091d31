package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

// Fee charged on every transfer, as a fraction of the send amount. Both
// delivery methods carry the same rate today.
const feeRate = 0.005

// Quote is the derived pricing for a draft. All figures are formatted with
// two decimal places; Amount and TotalCharge are in the send currency,
// RecipientAmount in the receive currency.
type Quote struct {
	Amount          string
	Fee             string
	TotalCharge     string
	RecipientAmount string
	Rate            float64
}

// ParseAmount validates a user-entered amount: parseable decimal, strictly
// positive.
func ParseAmount(input string) (float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", trimmed)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	return amount, nil
}

// ComputeQuote derives fee, total charge, and recipient-side amount from the
// entered amount and exchange rate. Pure: the same inputs always produce the
// same quote.
func ComputeQuote(amountInput string, rate float64) (Quote, error) {
	amount, err := ParseAmount(amountInput)
	if err != nil {
		return Quote{}, err
	}
	fee := amount * feeRate
	return Quote{
		Amount:          formatMoney(amount),
		Fee:             formatMoney(fee),
		TotalCharge:     formatMoney(amount + fee),
		RecipientAmount: formatMoney(amount * rate),
		Rate:            rate,
	}, nil
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
