package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"1E3", "", false},
		{"1e9999999", "", false},
		{"1.5e-2", "", false},
		{".5", "", false},
		{"999999999999.99", "999999999999.99", true},
		{"1000000000000", "", false},
		{"1.123456789", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestMoneyJSON(t *testing.T) {
	var fromString, fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`"12.50"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &fromNumber))
	assert.Equal(t, "12.50", fromString.String())
	assert.True(t, fromString.Equal(fromNumber.Decimal))

	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: NewMoney(7.1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 7.10}`, string(b))
}

func TestMoneyDisplay(t *testing.T) {
	assert.Equal(t, "$42.00", NewMoney(42).Display())
}
