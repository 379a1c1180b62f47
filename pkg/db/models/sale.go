package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/pkg/db/types"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

// Sale is an ingested gateway transaction. (gateway_config_id,
// external_transaction_key) is the idempotency key: re-ingesting the same
// transaction overwrites, never duplicates. Monetary fields are minor units.
type Sale struct {
	ID                     uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayConfigID        uuid.UUID            `gorm:"column:gateway_config_id;type:uuid;not null;uniqueIndex:ux_sales_gateway_tx"`
	ExternalTransactionKey string               `gorm:"column:external_transaction_key;not null;uniqueIndex:ux_sales_gateway_tx"`
	ProductKey             string               `gorm:"column:product_key;not null;index"`
	ProductName            string               `gorm:"column:product_name"`
	PlanKey                string               `gorm:"column:plan_key"`
	PlanName               string               `gorm:"column:plan_name"`
	ClientName             string               `gorm:"column:client_name"`
	ClientEmail            string               `gorm:"column:client_email"`
	ClientPhone            string               `gorm:"column:client_phone"`
	ClientDocument         string               `gorm:"column:client_document"`
	AmountCents            int64                `gorm:"column:amount_cents;not null;default:0"`
	NetAmountCents         int64                `gorm:"column:net_amount_cents;not null;default:0"`
	PaymentMethod          string               `gorm:"column:payment_method"`
	Status                 enums.SaleStatus     `gorm:"column:status;not null"`
	Commissions            types.CommissionList `gorm:"column:commissions;type:jsonb"`
	SaleDate               time.Time            `gorm:"column:sale_date;not null;index"`
	CreatedAt              time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
