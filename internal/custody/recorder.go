package custody

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

// Recorder appends to the custody chain of assets. Recorded events are never changed.
type Recorder struct {
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
	locks     *lock.KeyedMutex
}

// NewRecorder creates a custody chain recorder
func NewRecorder(st store.Store, publisher messaging.Publisher, clock adapter.Clock, locks *lock.KeyedMutex) *Recorder {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &Recorder{
		store:     st,
		publisher: publisher,
		clock:     clock,
		locks:     locks,
	}
}

// Record appends a from -> to custody event stamped with the current time.
// The timestamp never precedes the latest recorded event, so the chain stays ordered
// even when the clock steps backwards.
func (r *Recorder) Record(ctx context.Context, assetID int64, from domain.Holder, to domain.Holder) (*schema.CustodyEvent, error) {
	ctx = logger.WithAsset(ctx, assetID)
	unlock := r.locks.Lock(assetID)
	defer unlock()

	var event *schema.CustodyEvent
	err := r.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, _ *schema.Asset) error {
		var err error
		event, err = r.RecordTx(ctx, tx, assetID, from, to)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record custody event: %w", err)
	}

	r.Notify(ctx, event)
	return event, nil
}

// RecordTx appends a custody event inside a transaction the caller holds on the asset.
// The caller must hold the asset's key in the recorder's keyed mutex and call Notify after commit.
func (r *Recorder) RecordTx(ctx context.Context, tx store.Tx, assetID int64, from domain.Holder, to domain.Holder) (*schema.CustodyEvent, error) {
	from, err := validateHolder(from)
	if err != nil {
		return nil, err
	}
	to, err = validateHolder(to)
	if err != nil {
		return nil, err
	}

	occurredAt := r.clock.Now().UTC()
	latest, err := tx.GetLatestCustodyEvent(assetID)
	if err != nil {
		return nil, err
	}
	if latest != nil && occurredAt.Before(latest.OccurredAt) {
		logger.WarnCtx(ctx, "Clock behind custody chain, clamping event time",
			zap.Time("now", occurredAt),
			zap.Time("latest", latest.OccurredAt),
		)
		occurredAt = latest.OccurredAt.UTC()
	}

	event := &schema.CustodyEvent{
		AssetID:         assetID,
		FromHolderID:    from.ID,
		FromHolderLabel: from.Label,
		ToHolderID:      to.ID,
		ToHolderLabel:   to.Label,
		OccurredAt:      occurredAt,
	}
	if err := tx.CreateCustodyEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// Notify logs and publishes a committed custody event
func (r *Recorder) Notify(ctx context.Context, event *schema.CustodyEvent) {
	if event == nil {
		return
	}
	logger.InfoCtx(ctx, "Custody transferred",
		zap.String("from", event.FromHolderLabel),
		zap.String("to", event.ToHolderLabel),
	)
	messaging.Notify(ctx, r.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventCustodyTransferred,
		AssetID:    event.AssetID,
		OccurredAt: event.OccurredAt,
		Attributes: map[string]any{
			"event_id": event.ID,
			"from":     event.FromHolderLabel,
			"to":       event.ToHolderLabel,
		},
	})
}

// Chain returns the custody events of an asset in chronological order
func (r *Recorder) Chain(ctx context.Context, assetID int64) ([]schema.CustodyEvent, error) {
	if _, err := r.store.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return r.store.GetCustodyEvents(ctx, assetID)
}

func validateHolder(h domain.Holder) (domain.Holder, error) {
	h.ID = strings.TrimSpace(h.ID)
	h.Label = strings.TrimSpace(h.Label)
	if h.Label == "" {
		return domain.Holder{}, fmt.Errorf("%w: holder label is required", domain.ErrInvalidHolder)
	}
	return h, nil
}
