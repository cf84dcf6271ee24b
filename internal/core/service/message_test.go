package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductFragment(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantName string
		wantQty  int
		wantOK   bool
	}{
		{"fragment", "need parts\n\nRequested product: Product C, Quantity: 30", "Product C", 30, true},
		{"new product", "hello\n\nRequested NEW product: Widget X, Quantity: 7", "Widget X", 7, true},
		{"bad quantity", "Requested product: Product B, Quantity: lots", "Product B", 10, true},
		{"negative quantity", "Requested product: Product C, Quantity: -5", "Product C", 10, true},
		{"zero quantity", "Requested product: Product C, Quantity: 0", "Product C", 10, true},
		{"no quantity", "Requested product: Product B", "Product B", 10, true},
		{"first line wins", "Requested product: Product A, Quantity: 2\nRequested product: Product B, Quantity: 3", "Product A", 2, true},
		{"absent", "just some text about Product A", "", 0, false},
		{"empty name", "Requested product: , Quantity: 3", "", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, qty, ok := parseProductFragment(tt.message)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			if tt.wantOK {
				assert.Equal(t, tt.wantQty, qty)
			}
		})
	}
}

func TestProductFragmentRoundTrip(t *testing.T) {
	name, qty, ok := parseProductFragment("order" + productFragment("Product A", 5))
	require.True(t, ok)
	assert.Equal(t, "Product A", name)
	assert.Equal(t, 5, qty)
}

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ParseQuantity("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ParseQuantity("twelve")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 1, n)

	n, err = ParseQuantity("-4")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 1, n)
}

func TestEstimates(t *testing.T) {
	now := time.Date(2024, 2, 27, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "Will arrive by 2024-03-02", arrivalEstimate(now))
	assert.Equal(t, "Ready for shipment on 2024-02-28", shipmentEstimate(now))
}
