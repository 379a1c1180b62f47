package models

import (
	"time"

	"github.com/google/uuid"
)

// Product carries gateway-supplied metadata plus four derived statistics.
// The statistics are recomputed wholesale from the sales/abandons tables on
// every sync run and must never be treated as independently authoritative.
type Product struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayConfigID   uuid.UUID `gorm:"column:gateway_config_id;type:uuid;not null;uniqueIndex:ux_products_gateway_hash"`
	ProductHash       string    `gorm:"column:product_hash;not null;uniqueIndex:ux_products_gateway_hash"`
	Name              string    `gorm:"column:name;not null"`
	SourceRole        string    `gorm:"column:source_role"`
	Description       string    `gorm:"column:description"`
	PriceCents        int64     `gorm:"column:price_cents;not null;default:0"`
	TotalSales        int64     `gorm:"column:total_sales;not null;default:0"`
	TotalRevenueCents int64     `gorm:"column:total_revenue_cents;not null;default:0"`
	TotalAbandons     int64     `gorm:"column:total_abandons;not null;default:0"`
	ConversionRate    float64   `gorm:"column:conversion_rate;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
