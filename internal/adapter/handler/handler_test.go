package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/supplydesk/internal/adapter/storage"
	"github.com/rl1809/supplydesk/internal/clock"
	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/core/service"
)

var testNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type testDeps struct {
	requests  *service.RequestService
	inventory *service.InventoryService
}

// newTestDeps wires the services over the memory store with Product A 50,
// Product C 0 and Product D 10. Users 1 to 4 are Sales, Warehouse,
// Production and Support.
func newTestDeps(t *testing.T) testDeps {
	t.Helper()

	store := storage.NewMemoryAdapter()
	inventory := service.NewInventoryService(store, nil)
	requests := service.NewRequestService(store, store, inventory, service.WithClock(clock.Fake(testNow)))

	ctx := context.Background()
	for name, qty := range map[string]int{"Product A": 50, "Product C": 0, "Product D": 10} {
		_, err := inventory.Register(ctx, name, qty, "")
		require.NoError(t, err)
	}
	for _, role := range domain.Roles {
		_, err := store.EnsureUser(ctx, strings.ToLower(strings.Fields(string(role))[0]), role)
		require.NoError(t, err)
	}
	return testDeps{requests: requests, inventory: inventory}
}
