package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/supplydesk/internal/adapter/storage"
	"github.com/rl1809/supplydesk/internal/core/domain"
)

func TestRegister_DuplicateLeavesItemUnchanged(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	first, err := inventory.Register(ctx, "Product E", 5, domain.StockStatusLowStock)
	require.NoError(t, err)

	_, err = inventory.Register(ctx, "Product E", 1, domain.StockStatusInStock)
	assert.ErrorIs(t, err, ErrDuplicateItem)

	item, err := inventory.Get(ctx, "Product E")
	require.NoError(t, err)
	assert.Equal(t, first, item)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, domain.StockStatusLowStock, item.Status)
}

func TestRegister_Validation(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	_, err := inventory.Register(ctx, "  ", 5, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = inventory.Register(ctx, "Widget", -1, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = inventory.Register(ctx, "Widget", 1, "Plenty")
	assert.ErrorIs(t, err, ErrInvalidInput)

	item, err := inventory.Register(ctx, " Widget ", 11, "")
	require.NoError(t, err)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, domain.StockStatusInStock, item.Status)
}

func TestReserve(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	_, err := inventory.Register(ctx, "Product A", 50, "")
	require.NoError(t, err)

	assert.ErrorIs(t, inventory.Reserve(ctx, "Product A", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, inventory.Reserve(ctx, "Product A", 51), ErrInsufficientStock)
	assert.ErrorIs(t, inventory.Reserve(ctx, "Missing", 1), ErrInsufficientStock)

	require.NoError(t, inventory.Reserve(ctx, "Product A", 5))
	item, err := inventory.Get(ctx, "Product A")
	require.NoError(t, err)
	assert.Equal(t, 45, item.Quantity)

	require.NoError(t, inventory.Release(ctx, "Product A", 5))
	item, err = inventory.Get(ctx, "Product A")
	require.NoError(t, err)
	assert.Equal(t, 50, item.Quantity)

	assert.ErrorIs(t, inventory.Release(ctx, "Missing", 1), ErrNotFound)
}

func TestRestock(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	_, err := inventory.Register(ctx, "Product C", 0, "")
	require.NoError(t, err)

	require.NoError(t, inventory.Restock(ctx, "Product C", 2))
	item, err := inventory.Get(ctx, "Product C")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, domain.StockStatusInStock, item.Status)

	assert.ErrorIs(t, inventory.Restock(ctx, "Missing", 2), ErrNotFound)
	assert.ErrorIs(t, inventory.Restock(ctx, "Product C", -1), ErrInvalidQuantity)
}

func TestAdjustQuantity(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	item, err := inventory.Register(ctx, "Product B", 25, "")
	require.NoError(t, err)

	require.NoError(t, inventory.AdjustQuantity(ctx, item.ID, 3))
	got, err := inventory.Get(ctx, "Product B")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, domain.StockStatusLowStock, got.Status)

	assert.ErrorIs(t, inventory.AdjustQuantity(ctx, item.ID, -3), ErrInvalidQuantity)
	assert.ErrorIs(t, inventory.AdjustQuantity(ctx, 404, 3), ErrNotFound)
}

func TestLookupByFreeText(t *testing.T) {
	inventory := NewInventoryService(storage.NewMemoryAdapter(), nil)
	ctx := context.Background()

	for _, name := range []string{"Steel Bolt", "Copper Wire", "Größe Rohr"} {
		_, err := inventory.Register(ctx, name, 20, "")
		require.NoError(t, err)
	}

	tests := []struct {
		message string
		want    string
		ok      bool
	}{
		{"need COPPER asap", "Copper Wire", true},
		{"bolt and wire", "Steel Bolt", true},
		{"GRÖSSE bitte", "Größe Rohr", true},
		{"nothing relevant", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		item, ok, err := inventory.LookupByFreeText(ctx, tt.message)
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, tt.message)
		assert.Equal(t, tt.want, item.Name, tt.message)
	}
}

func TestAuthorizeInventory(t *testing.T) {
	assert.NoError(t, AuthorizeInventory(""))
	assert.NoError(t, AuthorizeInventory(domain.RoleWarehouse))
	assert.NoError(t, AuthorizeInventory(domain.RoleProduction))
	assert.ErrorIs(t, AuthorizeInventory(domain.RoleSales), ErrForbidden)
	assert.ErrorIs(t, AuthorizeInventory(domain.RoleSupport), ErrForbidden)
}
