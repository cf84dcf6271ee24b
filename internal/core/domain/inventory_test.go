package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockStatusFor(t *testing.T) {
	tests := []struct {
		quantity int
		want     StockStatus
	}{
		{0, StockStatusOutOfStock},
		{1, StockStatusLowStock},
		{10, StockStatusLowStock},
		{11, StockStatusInStock},
		{500, StockStatusInStock},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StockStatusFor(tt.quantity), "quantity %d", tt.quantity)
	}
}

func TestParseStockStatus(t *testing.T) {
	status, err := ParseStockStatus("Low Stock")
	require.NoError(t, err)
	assert.Equal(t, StockStatusLowStock, status)

	_, err = ParseStockStatus("Plenty")
	assert.Error(t, err)
}

func TestTagVendorEligible(t *testing.T) {
	assert.True(t, TagCustomerComplaint.VendorEligible())
	assert.True(t, TagServiceRequest.VendorEligible())
	assert.True(t, TagSupportRequest.VendorEligible())
	assert.False(t, TagStockCheck.VendorEligible())
	assert.False(t, TagGeneralRequest.VendorEligible())
}

func TestRoleCanManageInventory(t *testing.T) {
	assert.True(t, RoleWarehouse.CanManageInventory())
	assert.True(t, RoleProduction.CanManageInventory())
	assert.False(t, RoleSales.CanManageInventory())
	assert.False(t, Role("Intern").Known())
}
