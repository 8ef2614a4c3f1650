package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-perhiasan/internal/pricing"
)

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		0:          "₹0",
		999:        "₹999",
		1180:       "₹1,180",
		78234:      "₹78,234",
		123456.5:   "₹1,23,457",
		1234567.49: "₹12,34,567",
		-2500:      "-₹2,500",
	}
	for in, want := range cases {
		require.Equal(t, want, pricing.FormatINR(in), "amount %v", in)
	}
}

func TestFormatWeightAndCarat(t *testing.T) {
	require.Equal(t, "10.00g", pricing.FormatWeight(10))
	require.Equal(t, "3.46g", pricing.FormatWeight(3.456))
	require.Equal(t, "0.50ct", pricing.FormatCarat(0.5))
}
