package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a pure projection of distinct (productKey, planKey) pairs observed
// in sale rows. It has no external source and is fully rebuilt each run.
type Plan struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_plans_product_key"`
	GatewayConfigID   uuid.UUID `gorm:"column:gateway_config_id;type:uuid;not null;index"`
	PlanKey           string    `gorm:"column:plan_key;not null;uniqueIndex:ux_plans_product_key"`
	Name              string    `gorm:"column:name"`
	TotalSales        int64     `gorm:"column:total_sales;not null;default:0"`
	TotalRevenueCents int64     `gorm:"column:total_revenue_cents;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
