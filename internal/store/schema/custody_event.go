package schema

import (
	"time"
)

// CustodyEvent represents the custody_events table - append-only holder-to-holder transfers
type CustodyEvent struct {
	ID      int64 `gorm:"column:id;primaryKey;autoIncrement"`
	AssetID int64 `gorm:"column:asset_id;not null;index:idx_custody_events_asset_occurred,priority:1"`
	// FromHolderID is empty for the synthesized origin event
	FromHolderID    string    `gorm:"column:from_holder_id;not null;type:text"`
	FromHolderLabel string    `gorm:"column:from_holder_label;not null;type:text"`
	ToHolderID      string    `gorm:"column:to_holder_id;not null;type:text"`
	ToHolderLabel   string    `gorm:"column:to_holder_label;not null;type:text"`
	OccurredAt      time.Time `gorm:"column:occurred_at;not null;index:idx_custody_events_asset_occurred,priority:2"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the CustodyEvent model
func (CustodyEvent) TableName() string {
	return "custody_events"
}
