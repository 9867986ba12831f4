package clearance

import (
	"time"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/rightscheck"
)

// Report is the outcome of one clearance evaluation
type Report struct {
	// EvaluationID correlates log lines and events of one evaluation
	EvaluationID    string                       `json:"evaluation_id"`
	AssetID         int64                        `json:"asset_id"`
	Fingerprint     string                       `json:"fingerprint"`
	Duration        float64                      `json:"duration"`
	Outcome         rightscheck.Outcome          `json:"outcome"`
	RiskScore       *float64                     `json:"risk_score,omitempty"`
	ClearanceStatus domain.ClearanceStatus       `json:"clearance_status"`
	Verdicts        []rightscheck.ProviderResult `json:"verdicts"`
	// RegistrationJobID is the outbox job enqueued for a CLEARED asset
	RegistrationJobID *string   `json:"registration_job_id,omitempty"`
	EvaluatedAt       time.Time `json:"evaluated_at"`
}

// Decided reports whether the evaluation recorded a verdict on the asset
func (r *Report) Decided() bool {
	return r != nil && r.ClearanceStatus.IsDecided()
}
