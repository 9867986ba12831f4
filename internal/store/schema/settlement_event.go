package schema

import (
	"time"

	"github.com/bomac1193/Issuance/internal/domain"
)

// SettlementEvent represents the settlement_events table - append-only PLAY/TRANSFER events
type SettlementEvent struct {
	ID         int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	AssetID    int64                 `gorm:"column:asset_id;not null;index:idx_settlement_events_asset_id"`
	Kind       domain.SettlementKind `gorm:"column:kind;not null;type:text"`
	OccurredAt time.Time             `gorm:"column:occurred_at;not null"`
	// Transitioned marks the event that moved the asset to SETTLED
	Transitioned bool      `gorm:"column:transitioned;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the SettlementEvent model
func (SettlementEvent) TableName() string {
	return "settlement_events"
}
