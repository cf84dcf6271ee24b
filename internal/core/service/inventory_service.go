package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/port"
)

// InventoryService is the inventory ledger. Read-modify-write on a single
// item is delegated to the repository, which must apply it atomically.
type InventoryService struct {
	repo   port.InventoryRepository
	logger *slog.Logger
}

func NewInventoryService(repo port.InventoryRepository, logger *slog.Logger) *InventoryService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InventoryService{repo: repo, logger: logger}
}

// AuthorizeInventory checks that an acting role may manage stock. An empty
// role means the caller is trusted.
func AuthorizeInventory(role domain.Role) error {
	if role == "" || role.CanManageInventory() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, role)
}

// Register adds a new item. An empty status is derived from quantity.
func (s *InventoryService) Register(ctx context.Context, name string, quantity int, status domain.StockStatus) (domain.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if quantity < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if status == "" {
		status = domain.StockStatusFor(quantity)
	} else if _, err := domain.ParseStockStatus(string(status)); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := s.repo.RegisterItem(ctx, domain.InventoryItem{Name: name, Quantity: quantity, Status: status})
	if errors.Is(err, port.ErrDuplicate) {
		return domain.InventoryItem{}, fmt.Errorf("%w: %s", ErrDuplicateItem, name)
	}
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("register item: %w", err)
	}

	s.logger.Info("inventory item registered", "item", item.Name, "quantity", item.Quantity, "status", item.Status)
	return item, nil
}

func (s *InventoryService) Get(ctx context.Context, name string) (domain.InventoryItem, error) {
	item, err := s.repo.GetItemByName(ctx, name)
	if errors.Is(err, port.ErrNotFound) {
		return domain.InventoryItem{}, fmt.Errorf("%w: item %q", ErrNotFound, name)
	}
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Reserve takes quantity units out of stock. It returns ErrInsufficientStock
// when the item is missing, not In Stock, or holds fewer units; the item is
// left unchanged in that case.
func (s *InventoryService) Reserve(ctx context.Context, name string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	ok, err := s.repo.ReserveStock(ctx, name, quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if !ok {
		return ErrInsufficientStock
	}

	s.logger.Debug("stock reserved", "item", name, "quantity", quantity)
	return nil
}

// Release puts back units taken by Reserve.
func (s *InventoryService) Release(ctx context.Context, name string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if err := s.repo.ReleaseStock(ctx, name, quantity); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("%w: item %q", ErrNotFound, name)
		}
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}

// Restock adds produced units. The item always ends up In Stock.
func (s *InventoryService) Restock(ctx context.Context, name string, produced int) error {
	if produced < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, produced)
	}

	ok, err := s.repo.RestockItem(ctx, name, produced)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: item %q", ErrNotFound, name)
	}

	s.logger.Info("inventory restocked", "item", name, "produced", produced)
	return nil
}

// LookupByFreeText walks the whitespace-separated words of message in order
// and returns the first item whose name contains a word, ignoring case.
// Short words can match unrelated items; callers only use this when no
// product was named explicitly.
func (s *InventoryService) LookupByFreeText(ctx context.Context, message string) (domain.InventoryItem, bool, error) {
	words := strings.Fields(message)
	if len(words) == 0 {
		return domain.InventoryItem{}, false, nil
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return domain.InventoryItem{}, false, fmt.Errorf("list items: %w", err)
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = fold(item.Name)
	}

	for _, word := range words {
		w := fold(word)
		for i, name := range names {
			if strings.Contains(name, w) {
				return items[i], true, nil
			}
		}
	}

	return domain.InventoryItem{}, false, nil
}

// AdjustQuantity overwrites the quantity of an item; the status follows it.
func (s *InventoryService) AdjustQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	err := s.repo.SetItemQuantity(ctx, id, quantity)
	if errors.Is(err, port.ErrNotFound) {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("adjust quantity: %w", err)
	}

	s.logger.Info("inventory adjusted", "item_id", id, "quantity", quantity)
	return nil
}

// List returns every item ordered by name.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}
