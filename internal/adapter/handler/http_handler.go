package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/rl1809/supplydesk/internal/core/domain"
	"github.com/rl1809/supplydesk/internal/core/service"
)

const requestIDHeader = "X-Request-ID"

type HTTPHandler struct {
	requests  *service.RequestService
	inventory *service.InventoryService
	logger    *slog.Logger
}

type MessageHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ClassifyHTTPRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

type ClassifyHTTPResponse struct {
	Tag string `json:"tag"`
}

type SubmitHTTPRequest struct {
	SubmitterID    int64  `json:"submitter_id"`
	Role           string `json:"role"`
	Message        string `json:"message"`
	Tag            string `json:"tag"`
	Product        string `json:"product"`
	NewProduct     string `json:"new_product"`
	Quantity       int    `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key"`
}

type AdvanceHTTPRequest struct {
	Status       string `json:"status"`
	ActingRole   string `json:"acting_role"`
	ActingUserID int64  `json:"acting_user_id"`
}

type VendorCloseHTTPRequest struct {
	VendorName string `json:"vendor_name"`
	Solution   string `json:"solution"`
}

type RegisterItemHTTPRequest struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
	ActingRole string `json:"acting_role"`
}

type AdjustItemHTTPRequest struct {
	Quantity   int    `json:"quantity"`
	ActingRole string `json:"acting_role"`
}

type QueueHTTPResponse struct {
	Role              string        `json:"role"`
	Queue             []RequestView `json:"queue"`
	MyRequests        []RequestView `json:"my_requests,omitempty"`
	NotificationCount int           `json:"notification_count"`
}

func NewHTTPHandler(requests *service.RequestService, inventory *service.InventoryService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{requests: requests, inventory: inventory, logger: logger}
}

// Routes returns the API mux wrapped with request-id tagging.
func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/classify", h.Classify)
	mux.HandleFunc("POST /api/requests", h.Submit)
	mux.HandleFunc("GET /api/requests/{id}", h.GetRequest)
	mux.HandleFunc("POST /api/requests/{id}/advance", h.Advance)
	mux.HandleFunc("GET /api/requests/{id}/log", h.StatusLog)
	mux.HandleFunc("GET /api/vendor/requests/{id}", h.VendorRequest)
	mux.HandleFunc("POST /api/vendor/requests/{id}/close", h.VendorClose)
	mux.HandleFunc("GET /api/inventory", h.ListInventory)
	mux.HandleFunc("POST /api/inventory", h.RegisterItem)
	mux.HandleFunc("PUT /api/inventory/{id}", h.AdjustItem)
	mux.HandleFunc("GET /api/queues/{role}", h.Queue)
	return h.withRequestID(mux)
}

func (h *HTTPHandler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Unknown roles are not an error here; they classify as a general request.
	tag := service.Classify(req.Message, domain.Role(req.Role))
	writeJSON(w, http.StatusOK, ClassifyHTTPResponse{Tag: string(tag)})
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	role, ok := parseRole(w, req.Role)
	if !ok {
		return
	}

	created, err := h.requests.Submit(r.Context(), service.SubmitInput{
		SubmitterID:    req.SubmitterID,
		Role:           role,
		Message:        req.Message,
		Tag:            domain.Tag(req.Tag),
		Product:        req.Product,
		NewProduct:     req.NewProduct,
		Quantity:       req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestView(created))
}

func (h *HTTPHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestView(req))
}

func (h *HTTPHandler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AdvanceHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.requests.Advance(r.Context(), id, domain.Status(req.Status), service.Actor{
		Role:   domain.Role(req.ActingRole),
		UserID: req.ActingUserID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestView(updated))
}

func (h *HTTPHandler) StatusLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.requests.StatusLog(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logEntryViews(entries))
}

func (h *HTTPHandler) VendorRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.requests.ResolveVendorRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestView(req))
}

func (h *HTTPHandler) VendorClose(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req VendorCloseHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	closed, err := h.requests.CloseByVendor(r.Context(), id, req.VendorName, req.Solution)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestView(closed))
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemViews(items))
}

func (h *HTTPHandler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	var req RegisterItemHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := service.AuthorizeInventory(domain.Role(req.ActingRole)); err != nil {
		h.writeError(w, r, err)
		return
	}

	item, err := h.inventory.Register(r.Context(), req.Name, req.Quantity, domain.StockStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemView(item))
}

func (h *HTTPHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AdjustItemHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := service.AuthorizeInventory(domain.Role(req.ActingRole)); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.inventory.AdjustQuantity(r.Context(), id, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageHTTPResponse{Success: true, Message: "quantity updated"})
}

// Queue serves a role's dashboard: its work queue and, when user_id is
// given, the user's own requests and unread notifications.
func (h *HTTPHandler) Queue(w http.ResponseWriter, r *http.Request) {
	role, ok := parseRole(w, r.PathValue("role"))
	if !ok {
		return
	}

	queue, err := h.requests.Queue(r.Context(), role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := QueueHTTPResponse{Role: string(role), Queue: requestViews(queue)}

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{Message: "invalid user_id"})
			return
		}
		mine, err := h.requests.MyRequests(r.Context(), userID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		count, err := h.requests.NotificationCount(r.Context(), userID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.MyRequests = requestViews(mine)
		resp.NotificationCount = count
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", w.Header().Get(requestIDHeader),
			"error", err,
		)
	}
	writeJSON(w, status, MessageHTTPResponse{Success: false, Message: message})
}

func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotVendorRequest):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDuplicateItem), errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func parseRole(w http.ResponseWriter, raw string) (domain.Role, bool) {
	role := domain.Role(raw)
	if !role.Known() {
		writeJSON(w, http.StatusBadRequest, MessageHTTPResponse{Message: "unknown role"})
		return "", false
	}
	return role, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
