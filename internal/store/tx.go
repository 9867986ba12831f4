package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bomac1193/Issuance/internal/store/schema"
)

type gormTx struct {
	tx *gorm.DB
}

// SaveAsset persists the mutable columns of a locked asset
func (t *gormTx) SaveAsset(asset *schema.Asset) error {
	if asset.ID == 0 {
		return errors.New("cannot save an asset without an ID")
	}
	if err := t.tx.Save(asset).Error; err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// CreateCustodyEvent appends a custody event
func (t *gormTx) CreateCustodyEvent(event *schema.CustodyEvent) error {
	if err := t.tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create custody event: %w", err)
	}
	return nil
}

// GetLatestCustodyEvent returns the newest custody event, or nil when the chain is empty
func (t *gormTx) GetLatestCustodyEvent(assetID int64) (*schema.CustodyEvent, error) {
	var event schema.CustodyEvent
	err := t.tx.Where("asset_id = ?", assetID).Order("occurred_at DESC, id DESC").First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest custody event: %w", err)
	}
	return &event, nil
}

// CreateSettlementEvent appends a settlement event
func (t *gormTx) CreateSettlementEvent(event *schema.SettlementEvent) error {
	if err := t.tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create settlement event: %w", err)
	}
	return nil
}

// GetFractionHoldings returns every holding of the asset
func (t *gormTx) GetFractionHoldings(assetID int64) ([]schema.FractionHolding, error) {
	var holdings []schema.FractionHolding
	if err := t.tx.Where("asset_id = ?", assetID).Order("id ASC").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to get fraction holdings: %w", err)
	}
	return holdings, nil
}

// ReplaceFractionHoldings replaces the asset's holding set.
// Rows are matched by holder; unchanged rows are left alone and holders missing from the new set are deleted.
func (t *gormTx) ReplaceFractionHoldings(assetID int64, holdings []schema.FractionHolding) error {
	current, err := t.GetFractionHoldings(assetID)
	if err != nil {
		return err
	}

	existing := make(map[string]schema.FractionHolding, len(current))
	for _, h := range current {
		existing[h.HolderID] = h
	}

	for _, h := range holdings {
		if h.Amount <= 0 {
			return fmt.Errorf("holding for %q has non-positive amount %d", h.HolderID, h.Amount)
		}

		prev, ok := existing[h.HolderID]
		delete(existing, h.HolderID)

		if !ok {
			row := schema.FractionHolding{
				AssetID:     assetID,
				HolderID:    h.HolderID,
				HolderLabel: h.HolderLabel,
				Amount:      h.Amount,
			}
			if err := t.tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create fraction holding: %w", err)
			}
			continue
		}

		if prev.Amount == h.Amount && prev.HolderLabel == h.HolderLabel {
			continue
		}
		if err := t.tx.Model(&schema.FractionHolding{}).
			Where("id = ?", prev.ID).
			Updates(map[string]interface{}{
				"amount":       h.Amount,
				"holder_label": h.HolderLabel,
			}).Error; err != nil {
			return fmt.Errorf("failed to update fraction holding: %w", err)
		}
	}

	// Zero-balance holders are removed
	for _, h := range existing {
		if err := t.tx.Delete(&schema.FractionHolding{}, h.ID).Error; err != nil {
			return fmt.Errorf("failed to delete fraction holding: %w", err)
		}
	}

	return nil
}

// CreateRegistrationJob enqueues an external registration
func (t *gormTx) CreateRegistrationJob(job *schema.RegistrationJob) error {
	job.NextAttemptAt = job.NextAttemptAt.UTC()
	if err := t.tx.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create registration job: %w", err)
	}
	return nil
}
