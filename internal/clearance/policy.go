package clearance

import (
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/rightscheck"
)

// Decide maps an aggregate rights-check outcome to a clearance status and risk score.
// Scoring is two-tier: provider confidence is kept for audit only.
// An indeterminate outcome yields UNCHECKED and no score.
func Decide(outcome rightscheck.Outcome) (domain.ClearanceStatus, *float64) {
	switch outcome {
	case rightscheck.OutcomeMatch:
		score := domain.RISK_SCORE_FLAGGED
		return domain.ClearanceStatusFlagged, &score
	case rightscheck.OutcomeNoMatch:
		score := domain.RISK_SCORE_CLEARED
		return domain.ClearanceStatusCleared, &score
	default:
		return domain.ClearanceStatusUnchecked, nil
	}
}
