package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/metrics"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

// Result describes one settlement trigger applied to an asset
type Result struct {
	// Event is the recorded settlement event, nil for an evaluation-time check
	Event        *schema.SettlementEvent
	Previous     domain.AssetStatus
	Current      domain.AssetStatus
	Transitioned bool
	OccurredAt   time.Time
	// Reason is domain.ErrInvalidRuleTransition when the event was recorded without effect
	Reason error
}

// Service drives the settlement state machine of assets
type Service struct {
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
	metrics   *metrics.Metrics
	locks     *lock.KeyedMutex
}

// NewService creates a settlement service
func NewService(st store.Store, publisher messaging.Publisher, clock adapter.Clock, m *metrics.Metrics, locks *lock.KeyedMutex) *Service {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &Service{
		store:     st,
		publisher: publisher,
		clock:     clock,
		metrics:   m,
		locks:     locks,
	}
}

// Record appends a settlement event and settles the asset when the event qualifies under its rule.
// Events are recorded even when they cannot change the status.
func (s *Service) Record(ctx context.Context, assetID int64, kind domain.SettlementKind) (*Result, error) {
	kind, err := domain.ParseSettlementKind(string(kind))
	if err != nil {
		return nil, err
	}

	ctx = logger.WithAsset(ctx, assetID, zap.String("kind", string(kind)))
	unlock := s.locks.Lock(assetID)
	defer unlock()

	var (
		result *Result
		rule   domain.SettlementRule
	)
	err = s.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, asset *schema.Asset) error {
		rule = asset.SettlementRule
		var err error
		result, err = s.RecordTx(tx, asset, kind)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement event: %w", err)
	}

	s.Notify(ctx, assetID, rule, result)
	return result, nil
}

// RecordTx appends a settlement event to an asset locked by the caller's transaction
// and applies the transition it triggers.
// The caller must hold the asset's key in the service's keyed mutex and call Notify after commit.
func (s *Service) RecordTx(tx store.Tx, asset *schema.Asset, kind domain.SettlementKind) (*Result, error) {
	kind, err := domain.ParseSettlementKind(string(kind))
	if err != nil {
		return nil, err
	}

	decision := Decide(asset.SettlementRule, asset.Status, kind)
	if decision.Reason != nil && !errors.Is(decision.Reason, domain.ErrInvalidRuleTransition) {
		return nil, decision.Reason
	}

	now := s.clock.Now().UTC()
	event := &schema.SettlementEvent{
		AssetID:      asset.ID,
		Kind:         kind,
		OccurredAt:   now,
		Transitioned: decision.Transitioned,
	}
	if err := tx.CreateSettlementEvent(event); err != nil {
		return nil, err
	}

	result := &Result{
		Event:        event,
		Previous:     asset.Status,
		Current:      decision.Next,
		Transitioned: decision.Transitioned,
		OccurredAt:   now,
		Reason:       decision.Reason,
	}
	if err := s.apply(tx, asset, decision, now); err != nil {
		return nil, err
	}
	return result, nil
}

// Check applies the evaluation-time trigger: IMMEDIATE assets settle without an event,
// every other asset is left unchanged.
func (s *Service) Check(ctx context.Context, assetID int64) (*Result, error) {
	ctx = logger.WithAsset(ctx, assetID)
	unlock := s.locks.Lock(assetID)
	defer unlock()

	now := s.clock.Now().UTC()
	var (
		result *Result
		rule   domain.SettlementRule
	)
	err := s.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, asset *schema.Asset) error {
		rule = asset.SettlementRule
		decision := DecideCheck(asset.SettlementRule, asset.Status)
		result = &Result{
			Previous:     asset.Status,
			Current:      decision.Next,
			Transitioned: decision.Transitioned,
			OccurredAt:   now,
		}
		return s.apply(tx, asset, decision, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check settlement: %w", err)
	}

	s.Notify(ctx, assetID, rule, result)
	return result, nil
}

// Events lists the settlement events of an asset, newest first
func (s *Service) Events(ctx context.Context, assetID int64) ([]schema.SettlementEvent, error) {
	if _, err := s.store.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.store.GetSettlementEvents(ctx, assetID)
}

func (s *Service) apply(tx store.Tx, asset *schema.Asset, decision Decision, now time.Time) error {
	if !decision.Transitioned {
		return nil
	}
	asset.Status = decision.Next
	asset.SettledAt = &now
	return tx.SaveAsset(asset)
}

// Notify records metrics for a committed result and publishes the settlement when it transitioned
func (s *Service) Notify(ctx context.Context, assetID int64, rule domain.SettlementRule, result *Result) {
	if result == nil {
		return
	}
	if !result.Transitioned {
		if result.Reason != nil {
			logger.DebugCtx(ctx, "Settlement event recorded without transition", zap.Error(result.Reason))
		}
		return
	}

	s.metrics.ObserveSettlement(string(rule))
	logger.InfoCtx(ctx, "Asset settled", zap.String("rule", string(rule)))

	attributes := map[string]any{"rule": string(rule)}
	if result.Event != nil {
		attributes["kind"] = string(result.Event.Kind)
		attributes["event_id"] = result.Event.ID
	}
	messaging.Notify(ctx, s.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventSettled,
		AssetID:    assetID,
		OccurredAt: result.OccurredAt,
		Attributes: attributes,
	})
}
