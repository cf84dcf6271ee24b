package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/supplydesk/internal/adapter/storage"
	"github.com/rl1809/supplydesk/internal/core/domain"
)

func TestSeed_IsIdempotent(t *testing.T) {
	store := storage.NewMemoryAdapter()
	inventory := NewInventoryService(store, nil)
	ctx := context.Background()

	first, err := Seed(ctx, inventory, store)
	require.NoError(t, err)
	require.Len(t, first, len(domain.Roles))
	assert.Equal(t, "sales_executive", first[0].Username)
	assert.Equal(t, domain.RoleSales, first[0].Role)

	require.NoError(t, inventory.Reserve(ctx, "Product A", 5))

	second, err := Seed(ctx, inventory, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	items, err := inventory.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, 45, items[0].Quantity)
	assert.Equal(t, domain.StockStatusOutOfStock, items[2].Status)
	assert.Equal(t, domain.StockStatusLowStock, items[3].Status)
}
