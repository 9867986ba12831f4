package messaging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/logger"
)

// SUBJECT_PREFIX prefixes every asset lifecycle subject
const SUBJECT_PREFIX = "issuance.asset"

// Publisher defines the interface for publishing asset lifecycle events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish publishes an asset lifecycle event
	Publish(ctx context.Context, event *domain.AssetEvent) error
	// Close closes the connection
	Close()
}

// Subject returns the broker subject of an event, e.g. issuance.asset.cleared
func Subject(eventType domain.AssetEventType) string {
	return fmt.Sprintf("%s.%s", SUBJECT_PREFIX, eventType)
}

// Notify publishes an event for a mutation that has already committed.
// Failures are logged and never returned.
func Notify(ctx context.Context, publisher Publisher, event *domain.AssetEvent) {
	if publisher == nil || event == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to publish asset event: %w", err),
			zap.String("type", string(event.Type)),
			zap.Int64("asset_id", event.AssetID))
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event, used when no broker is configured
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event *domain.AssetEvent) error {
	logger.DebugCtx(ctx, "Dropping asset event, no broker configured", zap.String("type", string(event.Type)))
	return nil
}

func (noopPublisher) Close() {}
