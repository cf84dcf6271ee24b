package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/port"
)

// DemoInventory is the stock loaded by Seed.
var DemoInventory = []struct {
	Name     string
	Quantity int
}{
	{"Product A", 50},
	{"Product B", 25},
	{"Product C", 0},
	{"Product D", 10},
}

// Seed loads the demo inventory and one user per role. Existing rows are
// left alone, so running it twice is harmless.
func Seed(ctx context.Context, inventory *InventoryService, users port.UserRepository) ([]domain.User, error) {
	for _, item := range DemoInventory {
		_, err := inventory.Register(ctx, item.Name, item.Quantity, "")
		if err != nil && !errors.Is(err, ErrDuplicateItem) {
			return nil, err
		}
	}

	seeded := make([]domain.User, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		u, err := users.EnsureUser(ctx, demoUsername(role), role)
		if err != nil {
			return nil, fmt.Errorf("seed user for %s: %w", role, err)
		}
		seeded = append(seeded, u)
	}
	return seeded, nil
}

// demoUsername turns "Sales Executive" into "sales_executive".
func demoUsername(role domain.Role) string {
	return strings.ReplaceAll(strings.ToLower(string(role)), " ", "_")
}
