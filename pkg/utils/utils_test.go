package utils

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		decimals      int32
		expected      string
		expectedError bool
	}{
		{name: "one tenth USDC", amount: "0.1", decimals: 6, expected: "100000"},
		{name: "whole amount", amount: "1", decimals: 6, expected: "1000000"},
		{name: "full precision", amount: "0.000001", decimals: 6, expected: "1"},
		{name: "zero", amount: "0", decimals: 6, expected: "0"},
		{name: "surrounding whitespace", amount: " 2.5 ", decimals: 6, expected: "2500000"},
		{name: "too many decimals", amount: "0.0000001", decimals: 6, expectedError: true},
		{name: "negative amount", amount: "-1", decimals: 6, expectedError: true},
		{name: "empty amount", amount: "", decimals: 6, expectedError: true},
		{name: "not a number", amount: "abc", decimals: 6, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := ParseUnits(tt.amount, tt.decimals)
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, units.String())
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.1", FormatUnits(big.NewInt(100000), 6))
	assert.Equal(t, "5", FormatUnits(big.NewInt(5000000), 6))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), 6))
	assert.Equal(t, "0", FormatUnits(nil, 6))
}

func TestIsSufficient(t *testing.T) {
	tests := []struct {
		name          string
		balance       string
		required      string
		expected      bool
		expectedError bool
	}{
		{name: "balance above required", balance: "5.0", required: "0.1", expected: true},
		{name: "balance equal to required", balance: "0.1", required: "0.1", expected: true},
		{name: "equal with different scale", balance: "0.10", required: "0.1", expected: true},
		{name: "balance below required", balance: "0.05", required: "0.1", expected: false},
		{name: "zero balance zero required", balance: "0", required: "0", expected: true},
		{name: "unparseable balance", balance: "n/a", required: "0.1", expectedError: true},
		{name: "unparseable required", balance: "1", required: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := IsSufficient(tt.balance, tt.required)
			if tt.expectedError {
				assert.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestFormatUSDCAmountRoundTrip(t *testing.T) {
	for _, amount := range []string{"0.1", "1", "0.005"} {
		t.Run(amount, func(t *testing.T) {
			formatted := FormatUSDCAmount(amount)
			assert.Contains(t, formatted, " USDC")

			parsed, err := ParseDisplayAmount(formatted)
			require.NoError(t, err)

			original, err := ParseAmount(amount)
			require.NoError(t, err)
			expected, _ := original.Float64()

			assert.InDelta(t, expected, parsed, 0.005+1e-9)
		})
	}
}

func TestFormatUSDCAmount(t *testing.T) {
	assert.Equal(t, "0.10 USDC", FormatUSDCAmount("0.1"))
	assert.Equal(t, "1.00 USDC", FormatUSDCAmount("1"))
	assert.Equal(t, "10.50 USDC", FormatUSDCAmount("10.5"))
	assert.Equal(t, "0.00 USDC", FormatUSDCAmount("garbage"))
}

func TestParseDisplayAmountInvalid(t *testing.T) {
	_, err := ParseDisplayAmount("lots USDC")
	assert.Error(t, err)
}

func TestCreateHTTPClientWithTimeoutsDoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data", http.StatusFound)
	}))
	defer server.Close()

	resp, err := CreateHTTPClientWithTimeouts().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://169.254.169.254/latest/meta-data", resp.Header.Get("Location"))
}
