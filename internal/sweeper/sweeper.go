package sweeper

import (
	"context"
)

// Sweeper drains due work from the store on a fixed cadence until stopped.
// Work a sweeper picks up must be safe to attempt twice.
type Sweeper interface {
	// Start runs sweep cycles until ctx is canceled or Stop is called.
	// It returns an error when the sweeper is already running.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the in-flight cycle, bounded by ctx
	Stop(ctx context.Context) error

	// Name identifies the sweeper in logs and metrics
	Name() string
}
