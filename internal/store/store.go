package store

import (
	"context"
	"time"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore,Tx=MockStoreTx
type Store interface {
	// CreateAsset creates an ISSUED, UNCHECKED asset together with its origin custody event
	CreateAsset(ctx context.Context, input CreateAssetInput) (*schema.Asset, error)
	// GetAsset retrieves an asset by ID
	GetAsset(ctx context.Context, assetID int64) (*schema.Asset, error)
	// ListAssets lists assets newest first
	ListAssets(ctx context.Context, limit int, offset int) ([]schema.Asset, error)
	// DeleteAsset deletes an asset and every row it owns
	DeleteAsset(ctx context.Context, assetID int64) error

	// WithLockedAsset runs fn inside one transaction holding a row lock on the asset.
	// Returning an error from fn rolls the transaction back.
	WithLockedAsset(ctx context.Context, assetID int64, fn func(tx Tx, asset *schema.Asset) error) error

	// GetCustodyEvents returns the custody chain ordered by (occurred_at, id)
	GetCustodyEvents(ctx context.Context, assetID int64) ([]schema.CustodyEvent, error)
	// GetSettlementEvents returns settlement events newest first
	GetSettlementEvents(ctx context.Context, assetID int64) ([]schema.SettlementEvent, error)
	// GetFractionHoldings returns holdings ordered by amount desc then holder id
	GetFractionHoldings(ctx context.Context, assetID int64) ([]schema.FractionHolding, error)

	// GetRegistrationJob retrieves a registration job by ID
	GetRegistrationJob(ctx context.Context, jobID string) (*schema.RegistrationJob, error)
	// GetRegistrationJobByAssetID retrieves the registration job of an asset
	GetRegistrationJobByAssetID(ctx context.Context, assetID int64) (*schema.RegistrationJob, error)
	// GetDueRegistrationJobs returns PENDING or FAILED jobs whose next attempt is due, oldest first
	GetDueRegistrationJobs(ctx context.Context, now time.Time, limit int) ([]schema.RegistrationJob, error)
	// CompleteRegistrationJob marks the job SUCCEEDED and stores the reference on the asset
	CompleteRegistrationJob(ctx context.Context, input CompleteRegistrationJobInput) (*schema.RegistrationJob, error)
	// FailRegistrationJob records a failed attempt
	FailRegistrationJob(ctx context.Context, input FailRegistrationJobInput) (*schema.RegistrationJob, error)
	// RequeueRegistrationJob moves a FAILED or ABANDONED job of an asset back to PENDING
	RequeueRegistrationJob(ctx context.Context, assetID int64, at time.Time) (*schema.RegistrationJob, error)
}

// Tx exposes the writes available to a WithLockedAsset callback.
// Every call runs in the surrounding transaction.
type Tx interface {
	// SaveAsset persists the mutable columns of a locked asset
	SaveAsset(asset *schema.Asset) error
	// CreateCustodyEvent appends a custody event
	CreateCustodyEvent(event *schema.CustodyEvent) error
	// GetLatestCustodyEvent returns the newest custody event, or nil when the chain is empty
	GetLatestCustodyEvent(assetID int64) (*schema.CustodyEvent, error)
	// CreateSettlementEvent appends a settlement event
	CreateSettlementEvent(event *schema.SettlementEvent) error
	// GetFractionHoldings returns every holding of the asset
	GetFractionHoldings(assetID int64) ([]schema.FractionHolding, error)
	// ReplaceFractionHoldings replaces the asset's holding set
	ReplaceFractionHoldings(assetID int64, holdings []schema.FractionHolding) error
	// CreateRegistrationJob enqueues an external registration
	CreateRegistrationJob(job *schema.RegistrationJob) error
}

// CreateAssetInput represents the data needed to issue an asset
type CreateAssetInput struct {
	Title          string
	Artist         string
	Year           int
	EditionTotal   int
	ProvenanceText *string
	Verification   string
	SettlementRule domain.SettlementRule
	IssuedAt       time.Time
}

// CompleteRegistrationJobInput represents a successful registration attempt
type CompleteRegistrationJobInput struct {
	JobID       string
	Reference   string
	CompletedAt time.Time
}

// FailRegistrationJobInput represents a failed registration attempt
type FailRegistrationJobInput struct {
	JobID         string
	Error         string
	NextAttemptAt time.Time
	// Abandon marks the job ABANDONED instead of FAILED
	Abandon bool
}
