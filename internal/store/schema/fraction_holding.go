package schema

import (
	"time"
)

// FractionHolding represents the fraction_holdings table - share balances of a fractionalized asset.
// Percentages are derived from Amount and the asset's fraction count and never stored.
type FractionHolding struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AssetID references the fractionalized asset
	AssetID int64 `gorm:"column:asset_id;not null;uniqueIndex:idx_fraction_holdings_asset_holder,priority:1"`
	// HolderID identifies the share holder (address or account id)
	HolderID string `gorm:"column:holder_id;not null;type:text;uniqueIndex:idx_fraction_holdings_asset_holder,priority:2"`
	// HolderLabel is the display label of the holder
	HolderLabel string `gorm:"column:holder_label;not null;type:text"`
	// Amount is the number of shares held, always positive
	Amount int64 `gorm:"column:amount;not null"`
	// CreatedAt is the timestamp when this holding was created
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	// UpdatedAt is the timestamp when this holding was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the FractionHolding model
func (FractionHolding) TableName() string {
	return "fraction_holdings"
}
