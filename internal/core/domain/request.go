package domain

import "time"

type Status string

const (
	StatusSubmitted             Status = "Submitted"
	StatusInTransit             Status = "In Transit"
	StatusForwardedToProduction Status = "Forwarded to Production"
	StatusReadyForShipment      Status = "Ready for Shipment"
	StatusFulfilled             Status = "Fulfilled"
	StatusNotification          Status = "Notification"

	// StatusProductionComplete is a transition command only. Requests that
	// receive it are persisted as StatusReadyForShipment.
	StatusProductionComplete Status = "Production Complete"
)

type Role string

const (
	RoleSales      Role = "Sales Executive"
	RoleWarehouse  Role = "Warehouse Officer"
	RoleProduction Role = "Production Planner"
	RoleSupport    Role = "Support Agent"
)

// Roles lists the known roles in display order.
var Roles = []Role{RoleSales, RoleWarehouse, RoleProduction, RoleSupport}

func (r Role) Known() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// CanManageInventory reports whether the role may register or adjust stock.
func (r Role) CanManageInventory() bool {
	return r == RoleWarehouse || r == RoleProduction
}

type Tag string

const (
	TagUrgentDelivery     Tag = "Urgent Delivery"
	TagStockCheck         Tag = "Stock Check"
	TagSalesRequest       Tag = "Sales Request"
	TagStockConfirmation  Tag = "Stock Confirmation"
	TagShipment           Tag = "Shipment"
	TagWarehouseRequest   Tag = "Warehouse Request"
	TagDelayReport        Tag = "Delay Report"
	TagProductionSchedule Tag = "Production Schedule"
	TagProductionRequest  Tag = "Production Request"
	TagCustomerComplaint  Tag = "Customer Complaint"
	TagServiceRequest     Tag = "Service Request"
	TagSupportRequest     Tag = "Support Request"
	TagStockUpdate        Tag = "Stock Update"
	TagGeneralRequest     Tag = "General Request"
)

// VendorEligible reports whether an external vendor may look up and close
// requests carrying this tag.
func (t Tag) VendorEligible() bool {
	switch t {
	case TagCustomerComplaint, TagServiceRequest, TagSupportRequest:
		return true
	}
	return false
}

// ProductReference is the product a sales request asked for.
type ProductReference struct {
	Name     string
	Quantity int
	// New is set when the product was registered by the submission itself.
	New bool
}

type Request struct {
	ID                    int64
	SubmitterID           int64
	SubmitterRole         Role
	Message               string
	Tag                   Tag
	Status                Status
	SubmittedAt           time.Time
	FulfilledAt           *time.Time
	VendorName            string
	VendorSolution        string
	EstimatedDelivery     string
	ForwardedToProduction bool
	Product               *ProductReference
}
