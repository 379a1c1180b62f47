package enums

import "fmt"

// SaleStatus mirrors the gateway's transaction state.
type SaleStatus string

const (
	SaleStatusAwaitingPayment SaleStatus = "awaiting_payment"
	SaleStatusApproved        SaleStatus = "approved"
	SaleStatusCanceled        SaleStatus = "canceled"
	SaleStatusRefunded        SaleStatus = "refunded"
	SaleStatusChargeback      SaleStatus = "chargeback"
	SaleStatusExpired         SaleStatus = "expired"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusAwaitingPayment,
	SaleStatusApproved,
	SaleStatusCanceled,
	SaleStatusRefunded,
	SaleStatusChargeback,
	SaleStatusExpired,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsApproved reports whether the sale counts toward revenue aggregates.
func (s SaleStatus) IsApproved() bool {
	return s == SaleStatusApproved
}

// ParseSaleStatus converts raw gateway input into a SaleStatus, defaulting
// unknown values to awaiting_payment so ingestion never drops rows.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return SaleStatusAwaitingPayment, fmt.Errorf("unknown sale status %q", value)
}
