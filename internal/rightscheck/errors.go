package rightscheck

import (
	"fmt"

	"github.com/bomac1193/Issuance/internal/domain"
)

// ProviderError reports a provider that failed after every retry.
// errors.Is(err, domain.ErrProviderUnavailable) holds for every ProviderError.
type ProviderError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s unavailable after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrProviderUnavailable
}
