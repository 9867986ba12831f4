package registrar

import (
	"context"
)

// Registrar records a cleared asset on an immutable external ledger.
// Registering an asset that is already registered with the same fingerprint succeeds without side effects.
//
//go:generate mockgen -source=registrar.go -destination=../mocks/registrar.go -package=mocks -mock_names=Registrar=MockRegistrar
type Registrar interface {
	// Register returns the external reference of the registration
	Register(ctx context.Context, assetID int64, fingerprint string) (string, error)
}
