package handler

import (
	"time"

	"github.com/rl1809/supplydesk/internal/core/domain"
)

// The view types are the JSON shapes shared by the HTTP API and the gRPC
// JSON codec.

type ProductView struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	New      bool   `json:"new,omitempty"`
}

type RequestView struct {
	ID                    int64        `json:"id"`
	SubmitterID           int64        `json:"submitter_id"`
	SubmitterRole         string       `json:"submitter_role"`
	Message               string       `json:"message"`
	Tag                   string       `json:"tag"`
	Status                string       `json:"status"`
	SubmittedAt           time.Time    `json:"submitted_at"`
	FulfilledAt           *time.Time   `json:"fulfilled_at,omitempty"`
	VendorName            string       `json:"vendor_name,omitempty"`
	VendorSolution        string       `json:"vendor_solution,omitempty"`
	EstimatedDelivery     string       `json:"estimated_delivery,omitempty"`
	ForwardedToProduction bool         `json:"forwarded_to_production"`
	Product               *ProductView `json:"product,omitempty"`
}

type ItemView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

type LogEntryView struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func requestView(req domain.Request) RequestView {
	v := RequestView{
		ID:                    req.ID,
		SubmitterID:           req.SubmitterID,
		SubmitterRole:         string(req.SubmitterRole),
		Message:               req.Message,
		Tag:                   string(req.Tag),
		Status:                string(req.Status),
		SubmittedAt:           req.SubmittedAt,
		FulfilledAt:           req.FulfilledAt,
		VendorName:            req.VendorName,
		VendorSolution:        req.VendorSolution,
		EstimatedDelivery:     req.EstimatedDelivery,
		ForwardedToProduction: req.ForwardedToProduction,
	}
	if req.Product != nil {
		v.Product = &ProductView{Name: req.Product.Name, Quantity: req.Product.Quantity, New: req.Product.New}
	}
	return v
}

func requestViews(reqs []domain.Request) []RequestView {
	out := make([]RequestView, len(reqs))
	for i, req := range reqs {
		out[i] = requestView(req)
	}
	return out
}

func itemView(item domain.InventoryItem) ItemView {
	return ItemView{ID: item.ID, Name: item.Name, Quantity: item.Quantity, Status: string(item.Status)}
}

func itemViews(items []domain.InventoryItem) []ItemView {
	out := make([]ItemView, len(items))
	for i, item := range items {
		out[i] = itemView(item)
	}
	return out
}

func logEntryViews(entries []domain.StatusLogEntry) []LogEntryView {
	out := make([]LogEntryView, len(entries))
	for i, e := range entries {
		out[i] = LogEntryView{Status: e.Status, Timestamp: e.Timestamp}
	}
	return out
}
