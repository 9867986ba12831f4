package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/bomac1193/Issuance/internal/domain"
)

// Asset represents the assets table - one issued sound asset
type Asset struct {
	// ID is the internal database primary key and the public asset identity
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Title is the display title of the work
	Title string `gorm:"column:title;not null;type:text"`
	// Artist is the artist display label
	Artist string `gorm:"column:artist;not null;type:text"`
	// Year is the release year
	Year int `gorm:"column:year;not null"`
	// EditionTotal is the number of editions issued (1-21)
	EditionTotal int `gorm:"column:edition_total;not null;default:1"`
	// ProvenanceText is free-form provenance supplied at issuance
	ProvenanceText *string `gorm:"column:provenance_text;type:text"`
	// Verification is the verification label shown alongside the asset
	Verification string `gorm:"column:verification;not null;type:text"`
	// SettlementRule decides which lifecycle event settles the asset
	SettlementRule domain.SettlementRule `gorm:"column:settlement_rule;not null;type:text"`
	// Status is ISSUED until settlement, then SETTLED forever
	Status domain.AssetStatus `gorm:"column:status;not null;type:text;index:idx_assets_status"`
	// ClearanceStatus is UNCHECKED until evaluated, then CLEARED or FLAGGED forever
	ClearanceStatus domain.ClearanceStatus `gorm:"column:clearance_status;not null;type:text;index:idx_assets_clearance_status"`
	// Fingerprint is the SHA-256 content fingerprint, written once by clearance
	Fingerprint *string `gorm:"column:fingerprint;type:text;index:idx_assets_fingerprint"`
	// RiskScore is the clearance risk score (0.0-1.0)
	RiskScore *float64 `gorm:"column:risk_score"`
	// DurationSeconds is the decoded audio duration
	DurationSeconds *float64 `gorm:"column:duration_seconds"`
	// ClearanceVerdicts holds the per-provider results the verdict was derived from
	ClearanceVerdicts datatypes.JSON `gorm:"column:clearance_verdicts"`
	// EvaluatedAt is when the clearance verdict was recorded
	EvaluatedAt *time.Time `gorm:"column:evaluated_at"`
	// SettledAt is when the asset became SETTLED
	SettledAt *time.Time `gorm:"column:settled_at"`
	// RegistrationRef is the external ledger reference (transaction hash) once registered
	RegistrationRef *string `gorm:"column:registration_ref;type:text"`
	// IsFractionalized is set once, when the share ledger is opened
	IsFractionalized bool `gorm:"column:is_fractionalized;not null;default:false"`
	// FractionCount is the total share count of a fractionalized asset
	FractionCount *int64 `gorm:"column:fraction_count"`
	// CreatedAt is the timestamp when this asset was issued
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_assets_created_at"`
	// UpdatedAt is the timestamp when this asset was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}
