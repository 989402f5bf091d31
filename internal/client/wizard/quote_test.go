package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swiftsend/swiftsend/internal/rates"
)

func TestParseAmountRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "12.3.4", "0", "-1", "-0.01"} {
		_, err := ParseAmount(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseAmountAcceptsDecimals(t *testing.T) {
	got, err := ParseAmount(" 250.75 ")
	require.NoError(t, err)
	require.Equal(t, 250.75, got)
}

func TestComputeQuote(t *testing.T) {
	q, err := ComputeQuote("500", rates.DefaultUSDGHS)
	require.NoError(t, err)
	require.Equal(t, "500.00", q.Amount)
	require.Equal(t, "2.50", q.Fee)
	require.Equal(t, "502.50", q.TotalCharge)
	require.Equal(t, "5625.00", q.RecipientAmount)
	require.Equal(t, rates.DefaultUSDGHS, q.Rate)
}

func TestComputeQuoteFractionalAmount(t *testing.T) {
	q, err := ComputeQuote("19.99", 11.25)
	require.NoError(t, err)
	require.Equal(t, "0.10", q.Fee)
	require.Equal(t, "20.09", q.TotalCharge)
	require.Equal(t, "224.89", q.RecipientAmount)
}
