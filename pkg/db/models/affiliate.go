package models

import (
	"time"

	"github.com/google/uuid"
)

// Affiliate is derived from the commission splits embedded in sale rows and
// fully rebuilt each run. AffiliateHash is the gateway's affiliate code.
type Affiliate struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayConfigID      uuid.UUID `gorm:"column:gateway_config_id;type:uuid;not null;uniqueIndex:ux_affiliates_gateway_hash"`
	AffiliateHash        string    `gorm:"column:affiliate_hash;not null;uniqueIndex:ux_affiliates_gateway_hash"`
	Name                 string    `gorm:"column:name"`
	Email                string    `gorm:"column:email"`
	TotalSales           int64     `gorm:"column:total_sales;not null;default:0"`
	TotalRevenueCents    int64     `gorm:"column:total_revenue_cents;not null;default:0"`
	TotalCommissionCents int64     `gorm:"column:total_commission_cents;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
