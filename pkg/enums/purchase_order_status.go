package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of a purchase order.
type PurchaseOrderStatus string

const (
	// PurchaseOrderStatusDraft marks an order that is still editable and deletable.
	PurchaseOrderStatusDraft PurchaseOrderStatus = "draft"
	// PurchaseOrderStatusConfirmed marks an immutable, finalized order.
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "confirmed"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusConfirmed,
}

// String implements fmt.Stringer.
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (s PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
