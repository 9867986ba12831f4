package ledger

import (
	"context"
	"fmt"

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

const (
	MUTATION_FRACTIONALIZE = "fractionalize"
	MUTATION_TRANSFER      = "transfer"
)

// Service maintains the fractional ownership ledger of assets.
// Every mutation loads the full holding set under a row lock, mutates a copy,
// verifies conservation and writes the set back in the same transaction.
type Service struct {
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
	metrics   *metrics.Metrics
	locks     *lock.KeyedMutex
}

// NewService creates a ledger service
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

// Fractionalize splits a CLEARED asset into count shares, all held by the custodian
func (s *Service) Fractionalize(ctx context.Context, assetID int64, count int64, custodian domain.Holder) ([]Position, error) {
	book, err := NewBook(count, custodian)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithAsset(ctx, assetID, zap.Int64("fraction_count", count))
	unlock := s.locks.Lock(assetID)
	defer unlock()

	err = s.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, asset *schema.Asset) error {
		if asset.IsFractionalized {
			return domain.ErrAlreadyFractionalized
		}
		if asset.ClearanceStatus != domain.ClearanceStatusCleared {
			return fmt.Errorf("%w: clearance status is %s", domain.ErrNotCleared, asset.ClearanceStatus)
		}

		if err := s.write(tx, assetID, book); err != nil {
			return err
		}

		asset.IsFractionalized = true
		asset.FractionCount = &count
		return tx.SaveAsset(asset)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fractionalize asset: %w", err)
	}

	s.metrics.ObserveLedgerMutation(MUTATION_FRACTIONALIZE)
	custodian = book.Holdings[0].Holder
	logger.InfoCtx(ctx, "Asset fractionalized", zap.String("custodian", custodian.ID))
	messaging.Notify(ctx, s.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventFractionalized,
		AssetID:    assetID,
		OccurredAt: s.clock.Now().UTC(),
		Attributes: map[string]any{
			"fraction_count": count,
			"custodian":      custodian.ID,
		},
	})

	return book.Positions(), nil
}

// TransferShares moves amount shares between holders of a fractionalized asset.
// A failed transfer leaves every holding unchanged.
func (s *Service) TransferShares(ctx context.Context, assetID int64, from domain.Holder, to domain.Holder, amount int64) ([]Position, error) {
	ctx = logger.WithAsset(ctx, assetID,
		zap.String("from", from.ID),
		zap.String("to", to.ID),
		zap.Int64("amount", amount),
	)
	unlock := s.locks.Lock(assetID)
	defer unlock()

	var next Book
	err := s.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, asset *schema.Asset) error {
		if !asset.IsFractionalized || asset.FractionCount == nil {
			return domain.ErrNotFractionalized
		}

		current, err := s.read(tx, assetID, *asset.FractionCount)
		if err != nil {
			return err
		}
		if err := current.Verify(); err != nil {
			return err
		}

		next, err = current.Transfer(from, to, amount)
		if err != nil {
			return err
		}
		return s.write(tx, assetID, next)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transfer shares: %w", err)
	}

	s.metrics.ObserveLedgerMutation(MUTATION_TRANSFER)
	logger.InfoCtx(ctx, "Shares transferred")
	messaging.Notify(ctx, s.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventSharesTransferred,
		AssetID:    assetID,
		OccurredAt: s.clock.Now().UTC(),
		Attributes: map[string]any{
			"from":   from.ID,
			"to":     to.ID,
			"amount": amount,
		},
	})

	return next.Positions(), nil
}

// Holdings returns the positions of a fractionalized asset
func (s *Service) Holdings(ctx context.Context, assetID int64) ([]Position, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.IsFractionalized || asset.FractionCount == nil {
		return nil, domain.ErrNotFractionalized
	}

	rows, err := s.store.GetFractionHoldings(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return toBook(*asset.FractionCount, rows).Positions(), nil
}

func (s *Service) read(tx store.Tx, assetID int64, count int64) (Book, error) {
	rows, err := tx.GetFractionHoldings(assetID)
	if err != nil {
		return Book{}, err
	}
	return toBook(count, rows), nil
}

// write replaces the holding set and reads it back to confirm conservation
func (s *Service) write(tx store.Tx, assetID int64, book Book) error {
	if err := book.Verify(); err != nil {
		return err
	}
	if err := tx.ReplaceFractionHoldings(assetID, toRows(assetID, book)); err != nil {
		return err
	}

	written, err := s.read(tx, assetID, book.FractionCount)
	if err != nil {
		return err
	}
	return written.Verify()
}

func toBook(count int64, rows []schema.FractionHolding) Book {
	book := Book{FractionCount: count, Holdings: make([]Holding, len(rows))}
	for i, r := range rows {
		book.Holdings[i] = Holding{
			Holder: domain.Holder{ID: r.HolderID, Label: r.HolderLabel},
			Amount: r.Amount,
		}
	}
	return book
}

func toRows(assetID int64, book Book) []schema.FractionHolding {
	rows := make([]schema.FractionHolding, len(book.Holdings))
	for i, h := range book.Holdings {
		rows[i] = schema.FractionHolding{
			AssetID:     assetID,
			HolderID:    h.Holder.ID,
			HolderLabel: h.Holder.Label,
			Amount:      h.Amount,
		}
	}
	return rows
}
