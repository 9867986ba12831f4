package clearance

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/audio"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/fingerprint"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/metrics"
	"github.com/bomac1193/Issuance/internal/registration"
	"github.com/bomac1193/Issuance/internal/rightscheck"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

// Engine evaluates the rights clearance of issued assets.
// At most one evaluation runs per asset at a time.
type Engine struct {
	store      store.Store
	decoder    audio.Decoder
	extractor  *fingerprint.Extractor
	aggregator *rightscheck.Aggregator
	dispatcher registration.Dispatcher
	publisher  messaging.Publisher
	clock      adapter.Clock
	json       adapter.JSON
	metrics    *metrics.Metrics
	locks      *lock.KeyedMutex
}

// NewEngine creates a clearance engine.
// A nil dispatcher leaves registration jobs for the sweeper.
func NewEngine(
	st store.Store,
	decoder audio.Decoder,
	extractor *fingerprint.Extractor,
	aggregator *rightscheck.Aggregator,
	dispatcher registration.Dispatcher,
	publisher messaging.Publisher,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
	m *metrics.Metrics,
	locks *lock.KeyedMutex,
) *Engine {
	if publisher == nil {
		publisher = messaging.NewNoopPublisher()
	}
	if locks == nil {
		locks = lock.NewKeyedMutex()
	}

	return &Engine{
		store:      st,
		decoder:    decoder,
		extractor:  extractor,
		aggregator: aggregator,
		dispatcher: dispatcher,
		publisher:  publisher,
		clock:      clock,
		json:       jsonAdapter,
		metrics:    m,
		locks:      locks,
	}
}

// Fingerprint decodes and fingerprints audio without touching any asset
func (e *Engine) Fingerprint(ctx context.Context, r io.Reader) (*fingerprint.Result, error) {
	samples, err := e.decoder.Decode(ctx, r)
	if err != nil {
		return nil, fingerprint.NewExtractionError(err)
	}

	start := e.clock.Now()
	result, err := e.extractor.Extract(samples)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveExtraction(e.clock.Since(start))

	return result, nil
}

// Evaluate fingerprints the audio of an UNCHECKED asset, queries the rights-check providers
// and records the verdict on the asset.
//
// An asset that already has a verdict is rejected with domain.ErrAlreadyEvaluated.
// When no provider matched and at least one could not answer, the partial report is returned
// with domain.ErrClearanceIndeterminate and the asset stays UNCHECKED.
func (e *Engine) Evaluate(ctx context.Context, assetID int64, r io.Reader) (*Report, error) {
	evaluationID := uuid.NewString()
	ctx = logger.WithAsset(ctx, assetID, zap.String("evaluation_id", evaluationID))

	unlock := e.locks.Lock(assetID)
	defer unlock()

	asset, err := e.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	if asset.ClearanceStatus.IsDecided() {
		return nil, fmt.Errorf("%w: asset %d is %s", domain.ErrAlreadyEvaluated, assetID, asset.ClearanceStatus)
	}

	result, err := e.Fingerprint(ctx, r)
	if err != nil {
		logger.WarnCtx(ctx, "Fingerprint extraction failed", zap.Error(err))
		return nil, err
	}
	logger.InfoCtx(ctx, "Fingerprint extracted",
		zap.String("fingerprint", result.Fingerprint),
		zap.Float64("duration", result.Duration),
	)

	verdict := e.aggregator.Check(ctx, result.Fingerprint)
	status, score := Decide(verdict.Outcome)

	report := &Report{
		EvaluationID:    evaluationID,
		AssetID:         assetID,
		Fingerprint:     result.Fingerprint,
		Duration:        result.Duration,
		Outcome:         verdict.Outcome,
		RiskScore:       score,
		ClearanceStatus: status,
		Verdicts:        verdict.Results,
	}

	if !status.IsDecided() {
		e.metrics.ObserveClearance(string(verdict.Outcome))
		logger.WarnCtx(ctx, "Clearance indeterminate, asset left unchecked", zap.Error(verdict.Err()))
		return report, fmt.Errorf("%w: %w", domain.ErrClearanceIndeterminate, verdict.Err())
	}

	verdicts, err := e.json.Marshal(verdict.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider verdicts: %w", err)
	}

	now := e.clock.Now().UTC()
	report.EvaluatedAt = now

	var job *schema.RegistrationJob
	err = e.store.WithLockedAsset(ctx, assetID, func(tx store.Tx, locked *schema.Asset) error {
		// Another process sharing the database may have decided first
		if locked.ClearanceStatus.IsDecided() {
			return fmt.Errorf("%w: asset %d is %s", domain.ErrAlreadyEvaluated, assetID, locked.ClearanceStatus)
		}

		fp := result.Fingerprint
		duration := result.Duration
		locked.Fingerprint = &fp
		locked.DurationSeconds = &duration
		locked.RiskScore = score
		locked.ClearanceStatus = status
		locked.ClearanceVerdicts = datatypes.JSON(verdicts)
		locked.EvaluatedAt = &now
		if err := tx.SaveAsset(locked); err != nil {
			return err
		}

		if status == domain.ClearanceStatusCleared {
			job = registration.NewJob(assetID, fp, now)
			if err := tx.CreateRegistrationJob(job); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyEvaluated) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record clearance: %w", err)
	}

	e.metrics.ObserveClearance(string(status))
	logger.InfoCtx(ctx, "Clearance recorded",
		zap.String("clearance_status", string(status)),
		zap.Float64("risk_score", *score),
		zap.String("outcome", string(verdict.Outcome)),
	)

	eventType := domain.AssetEventFlagged
	if status == domain.ClearanceStatusCleared {
		eventType = domain.AssetEventCleared
	}
	messaging.Notify(ctx, e.publisher, &domain.AssetEvent{
		Type:       eventType,
		AssetID:    assetID,
		OccurredAt: now,
		Attributes: map[string]any{
			"evaluation_id": evaluationID,
			"fingerprint":   result.Fingerprint,
			"risk_score":    *score,
		},
	})

	if job != nil {
		report.RegistrationJobID = &job.ID
		if e.dispatcher != nil {
			e.dispatcher.Dispatch(ctx, job.ID)
		} else {
			logger.InfoCtx(ctx, "No registrar configured, registration job left for the sweeper", zap.String("job_id", job.ID))
		}
	}

	return report, nil
}

// Wait blocks until background registration attempts started by Evaluate have finished
func (e *Engine) Wait() {
	if e.dispatcher != nil {
		e.dispatcher.Wait()
	}
}
