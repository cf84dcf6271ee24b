package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/port"
)

// MemoryAdapter keeps every table in process memory behind one mutex. It
// implements the same contract as SQLAdapter and is meant for development
// and tests.
type MemoryAdapter struct {
	mu sync.Mutex

	items    []domain.InventoryItem
	requests []domain.Request
	logs     []domain.StatusLogEntry
	users    []domain.User

	itemSeq    int64
	requestSeq int64
	logSeq     int64
	userSeq    int64

	// failWrites makes request writes fail; tests use it to exercise
	// compensation paths.
	failWrites error
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

func (m *MemoryAdapter) RegisterItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.itemIndexByName(item.Name) >= 0 {
		return domain.InventoryItem{}, port.ErrDuplicate
	}
	m.itemSeq++
	item.ID = m.itemSeq
	m.items = append(m.items, item)
	return item, nil
}

// itemIndexByName matches names exactly, like the SQL adapters' unique key.
func (m *MemoryAdapter) itemIndexByName(name string) int {
	for i, item := range m.items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

func (m *MemoryAdapter) GetItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.InventoryItem{}, port.ErrNotFound
}

func (m *MemoryAdapter) GetItemByName(ctx context.Context, name string) (domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndexByName(name)
	if i < 0 {
		return domain.InventoryItem{}, port.ErrNotFound
	}
	return m.items[i], nil
}

func (m *MemoryAdapter) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := slices.Clone(m.items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *MemoryAdapter) ReserveStock(ctx context.Context, name string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndexByName(name)
	if i < 0 {
		return false, nil
	}
	item := &m.items[i]
	if item.Status != domain.StockStatusInStock || item.Quantity < quantity {
		return false, nil
	}
	item.Quantity -= quantity
	item.Status = domain.StockStatusFor(item.Quantity)
	return true, nil
}

func (m *MemoryAdapter) ReleaseStock(ctx context.Context, name string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndexByName(name)
	if i < 0 {
		return port.ErrNotFound
	}
	item := &m.items[i]
	item.Quantity += quantity
	item.Status = domain.StockStatusFor(item.Quantity)
	return nil
}

func (m *MemoryAdapter) RestockItem(ctx context.Context, name string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.itemIndexByName(name)
	if i < 0 {
		return false, nil
	}
	m.items[i].Quantity += quantity
	m.items[i].Status = domain.StockStatusInStock
	return true, nil
}

func (m *MemoryAdapter) SetItemQuantity(ctx context.Context, id int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Quantity = quantity
			m.items[i].Status = domain.StockStatusFor(quantity)
			return nil
		}
	}
	return port.ErrNotFound
}

func (m *MemoryAdapter) CreateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites != nil {
		return domain.Request{}, m.failWrites
	}
	if !slices.ContainsFunc(m.users, func(u domain.User) bool { return u.ID == req.SubmitterID }) {
		return domain.Request{}, fmt.Errorf("%w: user %d", port.ErrNotFound, req.SubmitterID)
	}

	m.requestSeq++
	req.ID = m.requestSeq
	m.requests = append(m.requests, cloneRequest(req))

	entry.RequestID = req.ID
	m.appendLog(entry)
	return req, nil
}

func (m *MemoryAdapter) UpdateRequest(ctx context.Context, req domain.Request, entry domain.StatusLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites != nil {
		return m.failWrites
	}
	for i := range m.requests {
		if m.requests[i].ID == req.ID {
			m.requests[i] = cloneRequest(req)
			entry.RequestID = req.ID
			m.appendLog(entry)
			return nil
		}
	}
	return port.ErrNotFound
}

func (m *MemoryAdapter) appendLog(entry domain.StatusLogEntry) {
	m.logSeq++
	entry.ID = m.logSeq
	m.logs = append(m.logs, entry)
}

func (m *MemoryAdapter) GetRequest(ctx context.Context, id int64) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, req := range m.requests {
		if req.ID == id {
			return cloneRequest(req), nil
		}
	}
	return domain.Request{}, port.ErrNotFound
}

func (m *MemoryAdapter) ListRequests(ctx context.Context, filter port.RequestFilter) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Request
	for _, req := range m.requests {
		if filter.SubmitterID != 0 && req.SubmitterID != filter.SubmitterID {
			continue
		}
		if len(filter.Tags) > 0 && !slices.Contains(filter.Tags, req.Tag) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, req.Status) {
			continue
		}
		if filter.Forwarded != nil && req.ForwardedToProduction != *filter.Forwarded {
			continue
		}
		out = append(out, cloneRequest(req))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.NewestFirst {
			a, b = b, a
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *MemoryAdapter) ListStatusLog(ctx context.Context, requestID int64) ([]domain.StatusLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.StatusLogEntry
	for _, entry := range m.logs {
		if entry.RequestID == requestID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryAdapter) EnsureUser(ctx context.Context, username string, role domain.Role) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	m.userSeq++
	u := domain.User{ID: m.userSeq, Username: username, Role: role}
	m.users = append(m.users, u)
	return u, nil
}

func (m *MemoryAdapter) GetUser(ctx context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, port.ErrNotFound
}

// FailRequestWrites makes subsequent request writes return err. Pass nil to
// restore normal behaviour.
func (m *MemoryAdapter) FailRequestWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

func (m *MemoryAdapter) Close() error { return nil }

func cloneRequest(req domain.Request) domain.Request {
	if req.FulfilledAt != nil {
		t := *req.FulfilledAt
		req.FulfilledAt = &t
	}
	if req.Product != nil {
		p := *req.Product
		req.Product = &p
	}
	return req
}
