package issuance

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/clearance"
	"github.com/bomac1193/Issuance/internal/custody"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/ledger"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/settlement"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

const DEFAULT_LIST_LIMIT = 50

// IssueInput represents the data needed to issue a sound asset
type IssueInput struct {
	Title          string
	Artist         string
	Year           int
	EditionTotal   int
	ProvenanceText *string
	// SettlementRule is parsed case-insensitively; empty means IMMEDIATE
	SettlementRule string
}

// Service is the entry point for asset lifecycle operations.
// It routes each operation to the component that owns it.
type Service struct {
	store      store.Store
	clearance  *clearance.Engine
	settlement *settlement.Service
	ledger     *ledger.Service
	custody    *custody.Recorder
	publisher  messaging.Publisher
	clock      adapter.Clock
	locks      *lock.KeyedMutex
}

// NewService creates the issuance service.
// locks must be the keyed mutex shared by the settlement, ledger and custody components.
// The clearance engine may use its own.
func NewService(
	st store.Store,
	engine *clearance.Engine,
	settlementService *settlement.Service,
	ledgerService *ledger.Service,
	recorder *custody.Recorder,
	publisher messaging.Publisher,
	clock adapter.Clock,
	locks *lock.KeyedMutex,
) *Service {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}
	return &Service{
		store:      st,
		clearance:  engine,
		settlement: settlementService,
		ledger:     ledgerService,
		custody:    recorder,
		publisher:  publisher,
		clock:      clock,
		locks:      locks,
	}
}

// Issue creates an ISSUED, UNCHECKED asset held by the vault
func (s *Service) Issue(ctx context.Context, input IssueInput) (*schema.Asset, error) {
	title := strings.TrimSpace(input.Title)
	artist := strings.TrimSpace(input.Artist)
	if title == "" || artist == "" {
		return nil, fmt.Errorf("%w: title and artist are required", domain.ErrInvalidAsset)
	}

	editionTotal := input.EditionTotal
	if editionTotal == 0 {
		editionTotal = domain.MIN_EDITION_TOTAL
	}
	if editionTotal < domain.MIN_EDITION_TOTAL || editionTotal > domain.MAX_EDITION_TOTAL {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidEditionTotal, editionTotal)
	}

	rule, err := domain.ParseSettlementRule(input.SettlementRule)
	if err != nil {
		return nil, err
	}

	asset, err := s.store.CreateAsset(ctx, store.CreateAssetInput{
		Title:          title,
		Artist:         artist,
		Year:           input.Year,
		EditionTotal:   editionTotal,
		ProvenanceText: input.ProvenanceText,
		Verification:   domain.DEFAULT_VERIFICATION,
		SettlementRule: rule,
		IssuedAt:       s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue asset: %w", err)
	}

	ctx = logger.WithAsset(ctx, asset.ID)
	logger.InfoCtx(ctx, "Asset issued",
		zap.String("title", asset.Title),
		zap.String("rule", string(asset.SettlementRule)),
		zap.Int("edition_total", asset.EditionTotal),
	)
	messaging.Notify(ctx, s.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventIssued,
		AssetID:    asset.ID,
		OccurredAt: asset.CreatedAt,
		Attributes: map[string]any{
			"title":           asset.Title,
			"artist":          asset.Artist,
			"settlement_rule": string(asset.SettlementRule),
		},
	})

	return asset, nil
}

// Get returns an asset
func (s *Service) Get(ctx context.Context, assetID int64) (*schema.Asset, error) {
	return s.store.GetAsset(ctx, assetID)
}

// List returns assets newest first
func (s *Service) List(ctx context.Context, limit int, offset int) ([]schema.Asset, error) {
	if limit <= 0 {
		limit = DEFAULT_LIST_LIMIT
	}
	return s.store.ListAssets(ctx, limit, offset)
}

// Delete removes an asset with its custody chain, settlement events, holdings and registration job
func (s *Service) Delete(ctx context.Context, assetID int64) error {
	unlock := s.locks.Lock(assetID)
	defer unlock()

	if err := s.store.DeleteAsset(ctx, assetID); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	ctx = logger.WithAsset(ctx, assetID)
	logger.InfoCtx(ctx, "Asset deleted")
	messaging.Notify(ctx, s.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventDeleted,
		AssetID:    assetID,
		OccurredAt: s.clock.Now().UTC(),
	})
	return nil
}

// Evaluate runs clearance on the asset's audio, then applies the evaluation-time settlement trigger.
// On an indeterminate clearance the partial report is returned with the error and settlement is skipped.
func (s *Service) Evaluate(ctx context.Context, assetID int64, audio io.Reader) (*clearance.Report, *settlement.Result, error) {
	report, err := s.clearance.Evaluate(ctx, assetID, audio)
	if err != nil {
		return report, nil, err
	}

	result, err := s.settlement.Check(ctx, assetID)
	if err != nil {
		return report, nil, err
	}
	return report, result, nil
}

// RecordPlay records a completed play
func (s *Service) RecordPlay(ctx context.Context, assetID int64) (*settlement.Result, error) {
	return s.settlement.Record(ctx, assetID, domain.SettlementKindPlay)
}

// RecordSettlement records a settlement event of the given kind
func (s *Service) RecordSettlement(ctx context.Context, assetID int64, kind domain.SettlementKind) (*settlement.Result, error) {
	return s.settlement.Record(ctx, assetID, kind)
}

// TransferCustody appends a custody event and the TRANSFER settlement event it implies.
// Both are written in one transaction, so a failed settlement write also drops the custody event.
func (s *Service) TransferCustody(ctx context.Context, assetID int64, from domain.Holder, to domain.Holder) (*schema.CustodyEvent, *settlement.Result, error) {
	ctx = logger.WithAsset(ctx, assetID)
	unlock := s.locks.Lock(assetID)
	defer unlock()

	var (
		event  *schema.CustodyEvent
		result *settlement.Result
		rule   domain.SettlementRule
	)
	err := s.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, asset *schema.Asset) error {
		rule = asset.SettlementRule

		var err error
		event, err = s.custody.RecordTx(ctx, tx, assetID, from, to)
		if err != nil {
			return err
		}
		result, err = s.settlement.RecordTx(tx, asset, domain.SettlementKindTransfer)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to transfer custody: %w", err)
	}

	s.custody.Notify(ctx, event)
	s.settlement.Notify(ctx, assetID, rule, result)
	return event, result, nil
}

// Fractionalize splits a CLEARED asset into count shares held by the vault
func (s *Service) Fractionalize(ctx context.Context, assetID int64, count int64) ([]ledger.Position, error) {
	return s.ledger.Fractionalize(ctx, assetID, count, domain.VaultHolder)
}

// TransferShares moves shares between holders of a fractionalized asset
func (s *Service) TransferShares(ctx context.Context, assetID int64, from domain.Holder, to domain.Holder, amount int64) ([]ledger.Position, error) {
	return s.ledger.TransferShares(ctx, assetID, from, to, amount)
}

// Holdings returns the share positions of a fractionalized asset
func (s *Service) Holdings(ctx context.Context, assetID int64) ([]ledger.Position, error) {
	return s.ledger.Holdings(ctx, assetID)
}

// CustodyChain returns the custody events of an asset in chronological order
func (s *Service) CustodyChain(ctx context.Context, assetID int64) ([]schema.CustodyEvent, error) {
	return s.custody.Chain(ctx, assetID)
}

// SettlementEvents returns the settlement events of an asset, newest first
func (s *Service) SettlementEvents(ctx context.Context, assetID int64) ([]schema.SettlementEvent, error) {
	return s.settlement.Events(ctx, assetID)
}
