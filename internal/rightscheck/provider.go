package rightscheck

import (
	"context"

	"github.com/bomac1193/Issuance/internal/ratelimit"
)

// Verdict is one provider's answer for a fingerprint
type Verdict struct {
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
	// MatchedWork identifies the matched catalogue work, when the provider names one
	MatchedWork *string `json:"matched_work,omitempty"`
}

// Provider is an external rights-checking service.
// Check returns a Verdict for "no match" and an error only when the provider could not answer.
//
//go:generate mockgen -source=provider.go -destination=../mocks/provider.go -package=mocks -mock_names=Provider=MockProvider
type Provider interface {
	// Name returns a stable identifier used in audit results and metrics
	Name() string
	// Check looks the fingerprint up in the provider's catalogue
	Check(ctx context.Context, fingerprint string) (Verdict, error)
}

type throttledProvider struct {
	Provider
	limiter ratelimit.Limiter
}

// Throttle returns p with every Check first waiting on the limiter under p's name.
// A nil limiter returns p unchanged.
func Throttle(p Provider, limiter ratelimit.Limiter) Provider {
	if limiter == nil {
		return p
	}
	return &throttledProvider{Provider: p, limiter: limiter}
}

func (t *throttledProvider) Check(ctx context.Context, fingerprint string) (Verdict, error) {
	return ratelimit.Request(ctx, t.limiter, t.Name(), func(ctx context.Context) (Verdict, error) {
		return t.Provider.Check(ctx, fingerprint)
	})
}
