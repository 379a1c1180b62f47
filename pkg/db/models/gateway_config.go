package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafaelduartes/salescope-backend/pkg/enums"
)

// GatewayConfig binds a user to one payment-gateway account. The credential is
// stored encrypted; only the sync engine ever opens it.
type GatewayConfig struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	GatewayType         enums.GatewayType `gorm:"column:gateway_type;not null"`
	EncryptedCredential string            `gorm:"column:encrypted_credential;not null"`
	IsActive            bool              `gorm:"column:is_active;not null;default:true"`
	LastSyncAt          *time.Time        `gorm:"column:last_sync_at"`
	SyncStatus          enums.SyncStatus  `gorm:"column:sync_status;not null;default:'idle'"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
