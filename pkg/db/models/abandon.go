package models

import (
	"time"

	"github.com/google/uuid"
)

// Abandon is an abandoned-checkout record. AbandonKey is the gateway's id when
// it ships one, else a deterministic hash of (productKey, clientEmail,
// createdAt) computed at ingestion time.
type Abandon struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayConfigID uuid.UUID `gorm:"column:gateway_config_id;type:uuid;not null;uniqueIndex:ux_abandons_gateway_key"`
	AbandonKey      string    `gorm:"column:abandon_key;not null;uniqueIndex:ux_abandons_gateway_key"`
	ProductKey      string    `gorm:"column:product_key;not null;index"`
	ProductName     string    `gorm:"column:product_name"`
	ClientName      string    `gorm:"column:client_name"`
	ClientEmail     string    `gorm:"column:client_email"`
	ClientPhone     string    `gorm:"column:client_phone"`
	CheckoutURL     string    `gorm:"column:checkout_url"`
	AmountCents     int64     `gorm:"column:amount_cents;not null;default:0"`
	AbandonedAt     time.Time `gorm:"column:abandoned_at;not null;index"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
