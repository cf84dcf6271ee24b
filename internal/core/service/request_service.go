package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rl1809/supplydesk/internal/clock"
	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/port"
)

const vendorLogPrefix = "Fulfilled by Vendor: "

// RequestService runs the request lifecycle: it creates requests, applies
// status commands, and keeps the inventory ledger and the status log in step
// with them.
type RequestService struct {
	requests  port.RequestRepository
	logs      port.StatusLogRepository
	inventory *InventoryService
	cache     port.CacheRepository
	locker    port.Locker
	clock     clock.Clock
	logger    *slog.Logger
}

type Option func(*RequestService)

// WithCache enables idempotent submissions.
func WithCache(cache port.CacheRepository) Option {
	return func(s *RequestService) { s.cache = cache }
}

// WithLocker replaces the in-process per-request lock.
func WithLocker(locker port.Locker) Option {
	return func(s *RequestService) { s.locker = locker }
}

func WithClock(c clock.Clock) Option {
	return func(s *RequestService) { s.clock = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *RequestService) { s.logger = logger }
}

func NewRequestService(requests port.RequestRepository, logs port.StatusLogRepository, inventory *InventoryService, opts ...Option) *RequestService {
	s := &RequestService{
		requests:  requests,
		logs:      logs,
		inventory: inventory,
		locker:    newLocalLocker(),
		clock:     clock.Real(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput carries a new request. Product, NewProduct and Quantity are
// only honoured for the Sales role.
type SubmitInput struct {
	SubmitterID int64
	Role        domain.Role
	Message     string
	// Tag is the category chosen by the submitter. Empty means use Classify.
	Tag domain.Tag
	// Product names an existing inventory item.
	Product string
	// NewProduct names a product that is not in inventory yet.
	NewProduct string
	Quantity   int
	// IdempotencyKey rejects repeated submissions when a cache is configured.
	IdempotencyKey string
}

// Actor identifies who issued a command. It is recorded in logs only.
type Actor struct {
	Role   domain.Role
	UserID int64
}

// Submit creates a request. For sales requests the initial status is decided
// by checking and reserving stock; every submission writes one status log
// entry with the resulting status.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (domain.Request, error) {
	if strings.TrimSpace(in.Message) == "" {
		return domain.Request{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	if in.IdempotencyKey != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, "submit:"+in.IdempotencyKey)
		if err != nil {
			return domain.Request{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Request{}, ErrDuplicateRequest
		}
	}

	tag := in.Tag
	if tag == "" {
		tag = Classify(in.Message, in.Role)
	}

	now := s.clock.Now()
	req := domain.Request{
		SubmitterID:   in.SubmitterID,
		SubmitterRole: in.Role,
		Message:       in.Message,
		Tag:           tag,
		Status:        domain.StatusSubmitted,
		SubmittedAt:   now,
	}

	var reserved *domain.ProductReference
	if in.Role == domain.RoleSales {
		var err error
		reserved, err = s.checkStock(ctx, &req, in)
		if err != nil {
			return domain.Request{}, err
		}
	}

	entry := domain.StatusLogEntry{Status: string(req.Status), Timestamp: now}
	created, err := s.requests.CreateRequest(ctx, req, entry)
	if err != nil {
		if reserved != nil {
			s.undoReservation(ctx, *reserved)
		}
		if errors.Is(err, port.ErrNotFound) {
			return domain.Request{}, fmt.Errorf("%w: submitter %d", ErrNotFound, in.SubmitterID)
		}
		return domain.Request{}, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("request submitted",
		"request_id", created.ID,
		"submitter_id", created.SubmitterID,
		"role", created.SubmitterRole,
		"tag", created.Tag,
		"status", created.Status,
	)
	return created, nil
}

// checkStock resolves the product of a sales request and sets its initial
// status. It returns the reservation it made, if any, so that it can be
// undone when the request cannot be stored.
func (s *RequestService) checkStock(ctx context.Context, req *domain.Request, in SubmitInput) (*domain.ProductReference, error) {
	quantity := in.Quantity
	if quantity <= 0 {
		s.logger.Warn("non-positive quantity, using default", "quantity", quantity, "default", defaultRequestQuantity)
		quantity = defaultRequestQuantity
	}

	product := strings.TrimSpace(in.Product)

	if name := strings.TrimSpace(in.NewProduct); name != "" {
		_, err := s.inventory.Register(ctx, name, 0, domain.StockStatusOutOfStock)
		switch {
		case err == nil:
			req.Status = domain.StatusForwardedToProduction
			req.ForwardedToProduction = true
			req.EstimatedDelivery = estimateNewProduct
			req.Message += newProductFragment(name, quantity)
			req.Product = &domain.ProductReference{Name: name, Quantity: quantity, New: true}
			return nil, nil
		case errors.Is(err, ErrDuplicateItem):
			s.logger.Info("new product already in inventory", "item", name)
			product = name
		default:
			return nil, err
		}
	}

	if product == "" {
		item, ok, err := s.inventory.LookupByFreeText(ctx, req.Message)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		product = item.Name
	}

	if !strings.Contains(req.Message, product) {
		req.Message += productFragment(product, quantity)
	}
	req.Product = &domain.ProductReference{Name: product, Quantity: quantity}

	if _, err := s.inventory.Get(ctx, product); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("requested product not in inventory", "item", product)
			return nil, nil
		}
		return nil, err
	}

	err := s.inventory.Reserve(ctx, product, quantity)
	switch {
	case err == nil:
		req.Status = domain.StatusInTransit
		req.EstimatedDelivery = arrivalEstimate(req.SubmittedAt)
		return req.Product, nil
	case errors.Is(err, ErrInsufficientStock):
		req.Status = domain.StatusForwardedToProduction
		req.ForwardedToProduction = true
		req.EstimatedDelivery = estimateAwaitingProduction
		return nil, nil
	default:
		return nil, err
	}
}

func (s *RequestService) undoReservation(ctx context.Context, ref domain.ProductReference) {
	if err := s.inventory.Release(ctx, ref.Name, ref.Quantity); err != nil {
		s.logger.Error("CRITICAL: failed to release reservation", "item", ref.Name, "quantity", ref.Quantity, "error", err)
		return
	}
	s.logger.Warn("released reservation", "item", ref.Name, "quantity", ref.Quantity)
}

// Advance applies a status command to a request and appends the command to
// its status log. Commands for the same request are serialized.
func (s *RequestService) Advance(ctx context.Context, id int64, command domain.Status, actor Actor) (domain.Request, error) {
	if strings.TrimSpace(string(command)) == "" {
		return domain.Request{}, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, requestLockKey(id))
	if err != nil {
		return domain.Request{}, fmt.Errorf("lock request %d: %w", id, err)
	}
	defer unlock()

	req, err := s.get(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}

	now := s.clock.Now()
	t := transitionFor(command)
	t.apply(&req, now)

	var produced *domain.ProductReference
	if t.restock {
		produced, err = s.restockFrom(ctx, req)
		if err != nil {
			return domain.Request{}, err
		}
	}

	entry := domain.StatusLogEntry{RequestID: id, Status: t.logged, Timestamp: now}
	if err := s.requests.UpdateRequest(ctx, req, entry); err != nil {
		if produced != nil {
			s.undoRestock(ctx, *produced)
		}
		return domain.Request{}, fmt.Errorf("update request %d: %w", id, err)
	}

	s.logger.Info("request advanced",
		"request_id", id,
		"command", command,
		"status", req.Status,
		"acting_role", actor.Role,
		"acting_user_id", actor.UserID,
	)
	return req, nil
}

// productionTarget works out what a completed production run delivered:
// the structured product reference first, then a product line embedded in
// the message, then a free-text match against inventory.
func (s *RequestService) productionTarget(ctx context.Context, req domain.Request) (domain.ProductReference, bool, error) {
	if req.Product != nil && req.Product.Name != "" {
		quantity := req.Product.Quantity
		if quantity <= 0 {
			quantity = defaultProductionQuantity
		}
		return domain.ProductReference{Name: req.Product.Name, Quantity: quantity}, true, nil
	}

	if name, quantity, ok := parseProductFragment(req.Message); ok {
		return domain.ProductReference{Name: name, Quantity: quantity}, true, nil
	}

	item, ok, err := s.inventory.LookupByFreeText(ctx, req.Message)
	if err != nil || !ok {
		return domain.ProductReference{}, false, err
	}
	return domain.ProductReference{Name: item.Name, Quantity: defaultProductionQuantity}, true, nil
}

func (s *RequestService) restockFrom(ctx context.Context, req domain.Request) (*domain.ProductReference, error) {
	target, ok, err := s.productionTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info("production complete without identifiable product", "request_id", req.ID)
		return nil, nil
	}

	err = s.inventory.Restock(ctx, target.Name, target.Quantity)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("produced item not in inventory, skipping restock", "request_id", req.ID, "item", target.Name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (s *RequestService) undoRestock(ctx context.Context, ref domain.ProductReference) {
	if ref.Quantity == 0 {
		return
	}
	if err := s.inventory.Reserve(ctx, ref.Name, ref.Quantity); err != nil {
		s.logger.Error("CRITICAL: failed to roll back restock", "item", ref.Name, "quantity", ref.Quantity, "error", err)
		return
	}
	s.logger.Warn("rolled back restock", "item", ref.Name, "quantity", ref.Quantity)
}

// ResolveVendorRequest looks a request up by ID alone, the way an external
// vendor does. Only complaint, service and support requests are visible.
func (s *RequestService) ResolveVendorRequest(ctx context.Context, id int64) (domain.Request, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	if !req.Tag.VendorEligible() {
		return domain.Request{}, fmt.Errorf("%w: request %d is tagged %q", ErrNotVendorRequest, id, req.Tag)
	}
	return req, nil
}

// CloseByVendor records a vendor's solution and fulfils the request.
func (s *RequestService) CloseByVendor(ctx context.Context, id int64, vendorName, solution string) (domain.Request, error) {
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return domain.Request{}, fmt.Errorf("%w: vendor name is required", ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, requestLockKey(id))
	if err != nil {
		return domain.Request{}, fmt.Errorf("lock request %d: %w", id, err)
	}
	defer unlock()

	req, err := s.ResolveVendorRequest(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}

	now := s.clock.Now()
	req.Status = domain.StatusFulfilled
	req.FulfilledAt = &now
	req.VendorName = vendorName
	req.VendorSolution = solution

	entry := domain.StatusLogEntry{RequestID: id, Status: vendorLogPrefix + vendorName, Timestamp: now}
	if err := s.requests.UpdateRequest(ctx, req, entry); err != nil {
		return domain.Request{}, fmt.Errorf("update request %d: %w", id, err)
	}

	s.logger.Info("request closed by vendor", "request_id", id, "vendor", vendorName)
	return req, nil
}

func (s *RequestService) Get(ctx context.Context, id int64) (domain.Request, error) {
	return s.get(ctx, id)
}

func (s *RequestService) get(ctx context.Context, id int64) (domain.Request, error) {
	req, err := s.requests.GetRequest(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Request{}, fmt.Errorf("%w: request %d", ErrNotFound, id)
	}
	if err != nil {
		return domain.Request{}, fmt.Errorf("get request %d: %w", id, err)
	}
	return req, nil
}

// StatusLog returns the audit trail of a request, oldest entry first.
func (s *RequestService) StatusLog(ctx context.Context, id int64) ([]domain.StatusLogEntry, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.logs.ListStatusLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list status log %d: %w", id, err)
	}
	return entries, nil
}

// Queue returns the requests waiting on a role: stock work for the
// warehouse and forwarded demand for production. Other roles have no queue.
func (s *RequestService) Queue(ctx context.Context, role domain.Role) ([]domain.Request, error) {
	var filter port.RequestFilter
	switch role {
	case domain.RoleWarehouse:
		filter = port.RequestFilter{
			Tags:     []domain.Tag{domain.TagStockCheck, domain.TagUrgentDelivery, domain.TagStockUpdate},
			Statuses: []domain.Status{domain.StatusSubmitted, domain.StatusInTransit, domain.StatusNotification},
		}
	case domain.RoleProduction:
		forwarded := true
		filter = port.RequestFilter{
			Forwarded: &forwarded,
			Statuses:  []domain.Status{domain.StatusForwardedToProduction},
		}
	default:
		return nil, nil
	}

	reqs, err := s.requests.ListRequests(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s queue: %w", role, err)
	}
	return reqs, nil
}

// MyRequests returns the requests a user submitted, newest first.
func (s *RequestService) MyRequests(ctx context.Context, userID int64) ([]domain.Request, error) {
	reqs, err := s.requests.ListRequests(ctx, port.RequestFilter{SubmitterID: userID, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", userID, err)
	}
	return reqs, nil
}

// NotificationCount counts the unread stock-update alerts of a user.
func (s *RequestService) NotificationCount(ctx context.Context, userID int64) (int, error) {
	reqs, err := s.requests.ListRequests(ctx, port.RequestFilter{
		SubmitterID: userID,
		Tags:        []domain.Tag{domain.TagStockUpdate},
		Statuses:    []domain.Status{domain.StatusNotification},
	})
	if err != nil {
		return 0, fmt.Errorf("count notifications of user %d: %w", userID, err)
	}
	return len(reqs), nil
}
