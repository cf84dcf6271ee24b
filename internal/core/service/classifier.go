package service

import "github.com/rl1809/supplydesk/internal/core/domain"

// Classify suggests a tag for a request from keywords in its message. The
// first matching rule for the role wins. The result is advisory: submitters
// may pick a different tag.
func Classify(message string, role domain.Role) domain.Tag {
	text := fold(message)

	switch role {
	case domain.RoleSales:
		switch {
		case containsAny(text, "urgent", "immediate"):
			return domain.TagUrgentDelivery
		case containsAny(text, "stock", "inventory", "available"):
			return domain.TagStockCheck
		}
		return domain.TagSalesRequest
	case domain.RoleWarehouse:
		switch {
		case containsAny(text, "confirm", "availability"):
			return domain.TagStockConfirmation
		case containsAny(text, "ship", "deliver"):
			return domain.TagShipment
		}
		return domain.TagWarehouseRequest
	case domain.RoleProduction:
		switch {
		case containsAny(text, "delay"):
			return domain.TagDelayReport
		case containsAny(text, "schedule"):
			return domain.TagProductionSchedule
		}
		return domain.TagProductionRequest
	case domain.RoleSupport:
		switch {
		case containsAny(text, "complaint"):
			return domain.TagCustomerComplaint
		case containsAny(text, "service"):
			return domain.TagServiceRequest
		}
		return domain.TagSupportRequest
	}

	return domain.TagGeneralRequest
}
