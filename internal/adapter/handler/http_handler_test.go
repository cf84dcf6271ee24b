package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	deps := newTestDeps(t)
	srv := httptest.NewServer(NewHTTPHandler(deps.requests, deps.inventory, nil).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, target string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHTTP_HealthCheck(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestHTTP_RequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestHTTP_Classify(t *testing.T) {
	srv := newTestServer(t)

	var out ClassifyHTTPResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/classify", ClassifyHTTPRequest{Message: "URGENT please", Role: "Sales Executive"}, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Urgent Delivery", out.Tag)

	// Roles outside the known set still classify.
	out = ClassifyHTTPResponse{}
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/classify", ClassifyHTTPRequest{Message: "URGENT please", Role: "Vendor"}, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "General Request", out.Tag)
}

func TestHTTP_RequestLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var created RequestView
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", SubmitHTTPRequest{
		SubmitterID: 1,
		Role:        "Sales Executive",
		Message:     "need 30 units",
		Product:     "Product C",
		Quantity:    30,
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Forwarded to Production", created.Status)
	require.NotNil(t, created.Product)
	assert.Equal(t, 30, created.Product.Quantity)

	var advanced RequestView
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/requests/"+itoa(created.ID)+"/advance", AdvanceHTTPRequest{
		Status:     "Production Complete",
		ActingRole: "Production Planner",
	}, &advanced)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ready for Shipment", advanced.Status)
	assert.Equal(t, "Ready for shipment on 2024-03-02", advanced.EstimatedDelivery)

	var got RequestView
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/requests/"+itoa(created.ID), nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ready for Shipment", got.Status)

	var entries []LogEntryView
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/requests/"+itoa(created.ID)+"/log", nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, entries, 2)
	assert.Equal(t, "Forwarded to Production", entries[0].Status)
	assert.Equal(t, "Production Complete", entries[1].Status)

	var items []ItemView
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/inventory", nil, &items)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 3)
	assert.Equal(t, "Product C", items[1].Name)
	assert.Equal(t, 30, items[1].Quantity)
	assert.Equal(t, "In Stock", items[1].Status)
}

func TestHTTP_RequestErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing request", http.MethodGet, "/api/requests/99", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/requests/abc", nil, http.StatusBadRequest},
		{"missing log", http.MethodGet, "/api/requests/99/log", nil, http.StatusNotFound},
		{"empty message", http.MethodPost, "/api/requests", SubmitHTTPRequest{Role: "Support Agent"}, http.StatusBadRequest},
		{"unknown role", http.MethodPost, "/api/requests", SubmitHTTPRequest{Role: "Intern", Message: "x"}, http.StatusBadRequest},
		{"empty command", http.MethodPost, "/api/requests/1/advance", AdvanceHTTPRequest{}, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/api/requests/1", nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, srv.URL+tt.path, tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHTTP_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/requests", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out MessageHTTPResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, out.Success)
	assert.Equal(t, "invalid request body", out.Message)
}

func TestHTTP_VendorFlow(t *testing.T) {
	srv := newTestServer(t)

	var complaint RequestView
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", SubmitHTTPRequest{
		SubmitterID: 4,
		Role:        "Support Agent",
		Message:     "customer complaint about noise",
	}, &complaint)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Customer Complaint", complaint.Tag)

	var internal RequestView
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/requests", SubmitHTTPRequest{
		SubmitterID: 2,
		Role:        "Warehouse Officer",
		Message:     "ship the pallets",
	}, &internal)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/vendor/requests/"+itoa(internal.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/vendor/requests/"+itoa(complaint.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/vendor/requests/"+itoa(complaint.ID)+"/close", VendorCloseHTTPRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var closed RequestView
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/vendor/requests/"+itoa(complaint.ID)+"/close", VendorCloseHTTPRequest{
		VendorName: "Acme",
		Solution:   "Replaced the fan",
	}, &closed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Fulfilled", closed.Status)
	assert.Equal(t, "Acme", closed.VendorName)
	assert.NotNil(t, closed.FulfilledAt)
}

func TestHTTP_Inventory(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/inventory", RegisterItemHTTPRequest{Name: "Product E", Quantity: 5, Status: "Low Stock", ActingRole: "Sales Executive"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var item ItemView
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/inventory", RegisterItemHTTPRequest{Name: "Product E", Quantity: 5, Status: "Low Stock", ActingRole: "Warehouse Officer"}, &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Low Stock", item.Status)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/inventory", RegisterItemHTTPRequest{Name: "Product E", Quantity: 1, Status: "In Stock"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/inventory/"+itoa(item.ID), AdjustItemHTTPRequest{Quantity: 40, ActingRole: "Production Planner"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/inventory/"+itoa(item.ID), AdjustItemHTTPRequest{Quantity: -1}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/inventory/999", AdjustItemHTTPRequest{Quantity: 1}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var items []ItemView
	doJSON(t, http.MethodGet, srv.URL+"/api/inventory", nil, &items)
	for _, it := range items {
		if it.Name == "Product E" {
			assert.Equal(t, 40, it.Quantity)
			assert.Equal(t, "In Stock", it.Status)
		}
	}
}

func TestHTTP_Queue(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/requests", SubmitHTTPRequest{
		SubmitterID: 1,
		Role:        "Sales Executive",
		Message:     "short on D",
		Product:     "Product D",
		Quantity:    3,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var queue QueueHTTPResponse
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/queues/"+url.PathEscape("Production Planner"), nil, &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Production Planner", queue.Role)
	require.Len(t, queue.Queue, 1)
	assert.Empty(t, queue.MyRequests)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/queues/"+url.PathEscape("Sales Executive")+"?user_id=1", nil, &queue)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, queue.Queue)
	assert.Len(t, queue.MyRequests, 1)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/queues/Intern", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/queues/"+url.PathEscape("Sales Executive")+"?user_id=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPStatus(t *testing.T) {
	status, msg := httpStatus(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal error", msg)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
