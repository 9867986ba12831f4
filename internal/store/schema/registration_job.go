package schema

import (
	"time"

	"github.com/bomac1193/Issuance/internal/domain"
)

// RegistrationJob represents the registration_jobs table - the outbox of external ledger registrations.
// One job exists per cleared asset.
type RegistrationJob struct {
	// ID is a ULID
	ID      string `gorm:"column:id;primaryKey;type:text"`
	AssetID int64  `gorm:"column:asset_id;not null;uniqueIndex:idx_registration_jobs_asset_id"`
	// Fingerprint is copied from the asset when the job is enqueued
	Fingerprint string                    `gorm:"column:fingerprint;not null;type:text"`
	Status      domain.RegistrationStatus `gorm:"column:status;not null;type:text;index:idx_registration_jobs_status_next,priority:1"`
	Attempts    int                       `gorm:"column:attempts;not null;default:0"`
	LastError   *string                   `gorm:"column:last_error;type:text"`
	// NextAttemptAt is when the sweeper may pick the job up again
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;not null;index:idx_registration_jobs_status_next,priority:2"`
	// Reference is the external ledger reference returned on success
	Reference   *string    `gorm:"column:reference;type:text"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null"`

	// Associations
	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the RegistrationJob model
func (RegistrationJob) TableName() string {
	return "registration_jobs"
}
