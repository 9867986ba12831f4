package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

type gormStore struct {
	db *gorm.DB
}

// New creates a store backed by a gorm connection (PostgreSQL in production, SQLite for local use and tests)
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// CreateAsset creates an ISSUED, UNCHECKED asset together with its origin custody event
func (s *gormStore) CreateAsset(ctx context.Context, input CreateAssetInput) (*schema.Asset, error) {
	issuedAt := input.IssuedAt.UTC()
	asset := schema.Asset{
		Title:           input.Title,
		Artist:          input.Artist,
		Year:            input.Year,
		EditionTotal:    input.EditionTotal,
		ProvenanceText:  input.ProvenanceText,
		Verification:    input.Verification,
		SettlementRule:  input.SettlementRule,
		Status:          domain.AssetStatusIssued,
		ClearanceStatus: domain.ClearanceStatusUnchecked,
		CreatedAt:       issuedAt,
		UpdatedAt:       issuedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Create the asset
		if err := tx.Create(&asset).Error; err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}

		// 2. Synthesize the origin custody event
		origin := schema.CustodyEvent{
			AssetID:         asset.ID,
			FromHolderLabel: domain.ORIGIN_HOLDER_LABEL,
			ToHolderID:      domain.VaultHolder.ID,
			ToHolderLabel:   domain.VaultHolder.Label,
			OccurredAt:      issuedAt,
		}
		if err := tx.Create(&origin).Error; err != nil {
			return fmt.Errorf("failed to create origin custody event: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// GetAsset retrieves an asset by ID
func (s *gormStore) GetAsset(ctx context.Context, assetID int64) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).Where("id = ?", assetID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

// ListAssets lists assets newest first
func (s *gormStore) ListAssets(ctx context.Context, limit int, offset int) ([]schema.Asset, error) {
	var assets []schema.Asset
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// DeleteAsset deletes an asset and every row it owns.
// Children are deleted explicitly so engines without enforced foreign keys behave the same.
func (s *gormStore) DeleteAsset(ctx context.Context, assetID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset schema.Asset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", assetID).First(&asset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAssetNotFound
			}
			return fmt.Errorf("failed to lock asset: %w", err)
		}

		children := []interface{}{
			&schema.CustodyEvent{},
			&schema.SettlementEvent{},
			&schema.FractionHolding{},
			&schema.RegistrationJob{},
		}
		for _, model := range children {
			if err := tx.Where("asset_id = ?", assetID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete asset children: %w", err)
			}
		}

		if err := tx.Delete(&asset).Error; err != nil {
			return fmt.Errorf("failed to delete asset: %w", err)
		}

		return nil
	})
}

// WithLockedAsset runs fn inside one transaction holding a row lock on the asset
func (s *gormStore) WithLockedAsset(ctx context.Context, assetID int64, fn func(tx Tx, asset *schema.Asset) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset schema.Asset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", assetID).First(&asset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAssetNotFound
			}
			return fmt.Errorf("failed to lock asset: %w", err)
		}

		return fn(&gormTx{tx: tx}, &asset)
	})
}

// GetCustodyEvents returns the custody chain ordered by (occurred_at, id)
func (s *gormStore) GetCustodyEvents(ctx context.Context, assetID int64) ([]schema.CustodyEvent, error) {
	var events []schema.CustodyEvent
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get custody events: %w", err)
	}
	return events, nil
}

// GetSettlementEvents returns settlement events newest first
func (s *gormStore) GetSettlementEvents(ctx context.Context, assetID int64) ([]schema.SettlementEvent, error) {
	var events []schema.SettlementEvent
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("occurred_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement events: %w", err)
	}
	return events, nil
}

// GetFractionHoldings returns holdings ordered by amount desc then holder id
func (s *gormStore) GetFractionHoldings(ctx context.Context, assetID int64) ([]schema.FractionHolding, error) {
	var holdings []schema.FractionHolding
	err := s.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("amount DESC, holder_id ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get fraction holdings: %w", err)
	}
	return holdings, nil
}

// GetRegistrationJob retrieves a registration job by ID
func (s *gormStore) GetRegistrationJob(ctx context.Context, jobID string) (*schema.RegistrationJob, error) {
	var job schema.RegistrationJob
	err := s.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegistrationJobNotFound
		}
		return nil, fmt.Errorf("failed to get registration job: %w", err)
	}
	return &job, nil
}

// GetRegistrationJobByAssetID retrieves the registration job of an asset
func (s *gormStore) GetRegistrationJobByAssetID(ctx context.Context, assetID int64) (*schema.RegistrationJob, error) {
	var job schema.RegistrationJob
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegistrationJobNotFound
		}
		return nil, fmt.Errorf("failed to get registration job: %w", err)
	}
	return &job, nil
}

// GetDueRegistrationJobs returns PENDING or FAILED jobs whose next attempt is due, oldest first
func (s *gormStore) GetDueRegistrationJobs(ctx context.Context, now time.Time, limit int) ([]schema.RegistrationJob, error) {
	var jobs []schema.RegistrationJob
	query := s.db.WithContext(ctx).
		Where("status IN ?", []domain.RegistrationStatus{domain.RegistrationStatusPending, domain.RegistrationStatusFailed}).
		Where("next_attempt_at <= ?", now.UTC()).
		Order("next_attempt_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to get due registration jobs: %w", err)
	}
	return jobs, nil
}

// CompleteRegistrationJob marks the job SUCCEEDED and stores the reference on the asset
func (s *gormStore) CompleteRegistrationJob(ctx context.Context, input CompleteRegistrationJobInput) (*schema.RegistrationJob, error) {
	var job schema.RegistrationJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRegistrationJob(tx, input.JobID, &job); err != nil {
			return err
		}

		if job.Status == domain.RegistrationStatusSucceeded {
			logger.WarnCtx(ctx, "Registration job already succeeded",
				zap.String("job_id", job.ID), zap.Int64("asset_id", job.AssetID))
			return nil
		}

		completedAt := input.CompletedAt.UTC()
		reference := input.Reference
		job.Status = domain.RegistrationStatusSucceeded
		job.Attempts++
		job.Reference = &reference
		job.LastError = nil
		job.CompletedAt = &completedAt
		if err := tx.Save(&job).Error; err != nil {
			return fmt.Errorf("failed to update registration job: %w", err)
		}

		if err := tx.Model(&schema.Asset{}).
			Where("id = ?", job.AssetID).
			Updates(map[string]interface{}{
				"registration_ref": reference,
				"updated_at":       completedAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to set registration reference: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FailRegistrationJob records a failed attempt
func (s *gormStore) FailRegistrationJob(ctx context.Context, input FailRegistrationJobInput) (*schema.RegistrationJob, error) {
	var job schema.RegistrationJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRegistrationJob(tx, input.JobID, &job); err != nil {
			return err
		}

		if job.Status == domain.RegistrationStatusSucceeded {
			return nil
		}

		lastError := input.Error
		job.Attempts++
		job.LastError = &lastError
		job.NextAttemptAt = input.NextAttemptAt.UTC()
		job.Status = domain.RegistrationStatusFailed
		if input.Abandon {
			job.Status = domain.RegistrationStatusAbandoned
		}
		if err := tx.Save(&job).Error; err != nil {
			return fmt.Errorf("failed to update registration job: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// RequeueRegistrationJob moves a FAILED or ABANDONED job of an asset back to PENDING with a fresh attempt budget
func (s *gormStore) RequeueRegistrationJob(ctx context.Context, assetID int64, at time.Time) (*schema.RegistrationJob, error) {
	var job schema.RegistrationJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("asset_id = ?", assetID).First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrRegistrationJobNotFound
			}
			return fmt.Errorf("failed to lock registration job: %w", err)
		}

		if job.Status != domain.RegistrationStatusFailed && job.Status != domain.RegistrationStatusAbandoned {
			return nil
		}

		job.Status = domain.RegistrationStatusPending
		job.Attempts = 0
		job.NextAttemptAt = at.UTC()
		if err := tx.Save(&job).Error; err != nil {
			return fmt.Errorf("failed to requeue registration job: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func lockRegistrationJob(tx *gorm.DB, jobID string, job *schema.RegistrationJob) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", jobID).First(job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRegistrationJobNotFound
		}
		return fmt.Errorf("failed to lock registration job: %w", err)
	}
	return nil
}
