package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Commission entry types as reported by the gateway.
const (
	CommissionTypeProducer   = "producer"
	CommissionTypeCoProducer = "coproducer"
	CommissionTypeAffiliate  = "affiliate"
	CommissionTypePlatform   = "platform"
)

// CommissionEntry is one split of a sale's value. AffiliateCode is only set
// when the entry belongs to an affiliate.
type CommissionEntry struct {
	Type          string `json:"type"`
	AffiliateCode string `json:"affiliateCode,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	ValueCents    int64  `json:"valueCents"`
}

// IsAffiliateCommission reports whether the entry credits an affiliate.
func (e CommissionEntry) IsAffiliateCommission() bool {
	return strings.EqualFold(e.Type, CommissionTypeAffiliate) && e.AffiliateCode != ""
}

// CommissionList stores a sale's commission splits as a JSONB column.
type CommissionList []CommissionEntry

// Value implements driver.Valuer.
func (l CommissionList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal commission list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *CommissionList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported commission list source %T", value)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}
