package port

import (
	"context"
	"errors"

	"github.com/rl1809/supplydesk/internal/core/domain"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

type InventoryRepository interface {
	// RegisterItem inserts a new item and returns it with its ID set.
	RegisterItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)

	GetItem(ctx context.Context, id int64) (domain.InventoryItem, error)
	GetItemByName(ctx context.Context, name string) (domain.InventoryItem, error)

	// ListItems returns every item ordered by name.
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)

	// ReserveStock decrements quantity only if the item is In Stock and holds
	// at least quantity units. Returns false if nothing was reserved.
	ReserveStock(ctx context.Context, name string, quantity int) (bool, error)

	// ReleaseStock returns reserved units and recomputes the stock status.
	ReleaseStock(ctx context.Context, name string, quantity int) error

	// RestockItem adds produced units and marks the item In Stock.
	// Returns false if no item has that name.
	RestockItem(ctx context.Context, name string, quantity int) (bool, error)

	// SetItemQuantity overwrites quantity and recomputes the stock status.
	SetItemQuantity(ctx context.Context, id int64, quantity int) error
}

// RequestFilter narrows ListRequests. Zero fields match everything.
type RequestFilter struct {
	SubmitterID int64
	Tags        []domain.Tag
	Statuses    []domain.Status
	Forwarded   *bool
	NewestFirst bool
}

type RequestRepository interface {
	// CreateRequest inserts the request and its first log entry in one
	// transaction. The returned request carries the generated ID.
	CreateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) (domain.Request, error)

	// UpdateRequest stores the mutable request fields and appends the log
	// entry in one transaction.
	UpdateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) error

	GetRequest(ctx context.Context, id int64) (domain.Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
}

type StatusLogRepository interface {
	// ListStatusLog returns the entries of one request ordered by timestamp.
	ListStatusLog(ctx context.Context, requestID int64) ([]domain.StatusLogEntry, error)
}

type UserRepository interface {
	// EnsureUser returns the user with the given username, creating it if needed.
	EnsureUser(ctx context.Context, username string, role domain.Role) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

// DatabaseRepository is the full persistence surface a storage adapter offers.
type DatabaseRepository interface {
	InventoryRepository
	RequestRepository
	StatusLogRepository
	UserRepository
}
