package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rl1809/supplydesk/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		role    domain.Role
		want    domain.Tag
	}{
		{"sales urgent", "Need URGENT delivery of Product A", domain.RoleSales, domain.TagUrgentDelivery},
		{"sales immediate beats stock", "immediate stock check", domain.RoleSales, domain.TagUrgentDelivery},
		{"sales stock", "is Product B in stock?", domain.RoleSales, domain.TagStockCheck},
		{"sales inventory", "inventory question", domain.RoleSales, domain.TagStockCheck},
		{"sales available", "Is it Available", domain.RoleSales, domain.TagStockCheck},
		{"sales default", "customer wants a quote", domain.RoleSales, domain.TagSalesRequest},
		{"warehouse confirm", "please confirm the pallet count", domain.RoleWarehouse, domain.TagStockConfirmation},
		{"warehouse availability beats ship", "availability before we ship", domain.RoleWarehouse, domain.TagStockConfirmation},
		{"warehouse ship", "Ship to dock 4", domain.RoleWarehouse, domain.TagShipment},
		{"warehouse deliver", "deliver tomorrow", domain.RoleWarehouse, domain.TagShipment},
		{"warehouse default", "forklift broken", domain.RoleWarehouse, domain.TagWarehouseRequest},
		{"production delay", "Line 2 DELAYED", domain.RoleProduction, domain.TagDelayReport},
		{"production schedule", "next week schedule", domain.RoleProduction, domain.TagProductionSchedule},
		{"production default", "need more resin", domain.RoleProduction, domain.TagProductionRequest},
		{"support complaint", "customer complaint about packaging", domain.RoleSupport, domain.TagCustomerComplaint},
		{"support service", "service visit required", domain.RoleSupport, domain.TagServiceRequest},
		{"support default", "call back the client", domain.RoleSupport, domain.TagSupportRequest},
		{"unknown role", "urgent", domain.Role("Auditor"), domain.TagGeneralRequest},
		{"empty role", "anything", "", domain.TagGeneralRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message, tt.role))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	msg := "Urgent: confirm stock"
	first := Classify(msg, domain.RoleSales)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(msg, domain.RoleSales))
	}
}
