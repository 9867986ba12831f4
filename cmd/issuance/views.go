package main

import (
	"encoding/json"
	"time"

	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/settlement"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

type assetView struct {
	ID               int64                  `json:"id"`
	Title            string                 `json:"title"`
	Artist           string                 `json:"artist"`
	Year             int                    `json:"year"`
	EditionTotal     int                    `json:"edition_total"`
	ProvenanceText   *string                `json:"provenance_text,omitempty"`
	Verification     string                 `json:"verification"`
	SettlementRule   domain.SettlementRule  `json:"settlement_rule"`
	Status           domain.AssetStatus     `json:"status"`
	ClearanceStatus  domain.ClearanceStatus `json:"clearance_status"`
	Fingerprint      *string                `json:"fingerprint,omitempty"`
	RiskScore        *float64               `json:"risk_score,omitempty"`
	DurationSeconds  *float64               `json:"duration_seconds,omitempty"`
	Verdicts         json.RawMessage        `json:"verdicts,omitempty"`
	EvaluatedAt      *time.Time             `json:"evaluated_at,omitempty"`
	SettledAt        *time.Time             `json:"settled_at,omitempty"`
	RegistrationRef  *string                `json:"registration_ref,omitempty"`
	IsFractionalized bool                   `json:"is_fractionalized"`
	FractionCount    *int64                 `json:"fraction_count,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func newAssetView(a *schema.Asset) assetView {
	v := assetView{
		ID:               a.ID,
		Title:            a.Title,
		Artist:           a.Artist,
		Year:             a.Year,
		EditionTotal:     a.EditionTotal,
		ProvenanceText:   a.ProvenanceText,
		Verification:     a.Verification,
		SettlementRule:   a.SettlementRule,
		Status:           a.Status,
		ClearanceStatus:  a.ClearanceStatus,
		Fingerprint:      a.Fingerprint,
		RiskScore:        a.RiskScore,
		DurationSeconds:  a.DurationSeconds,
		EvaluatedAt:      a.EvaluatedAt,
		SettledAt:        a.SettledAt,
		RegistrationRef:  a.RegistrationRef,
		IsFractionalized: a.IsFractionalized,
		FractionCount:    a.FractionCount,
		CreatedAt:        a.CreatedAt,
	}
	if len(a.ClearanceVerdicts) > 0 {
		v.Verdicts = json.RawMessage(a.ClearanceVerdicts)
	}
	return v
}

type custodyView struct {
	ID         int64         `json:"id"`
	From       domain.Holder `json:"from"`
	To         domain.Holder `json:"to"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func newCustodyView(e *schema.CustodyEvent) custodyView {
	return custodyView{
		ID:         e.ID,
		From:       domain.Holder{ID: e.FromHolderID, Label: e.FromHolderLabel},
		To:         domain.Holder{ID: e.ToHolderID, Label: e.ToHolderLabel},
		OccurredAt: e.OccurredAt,
	}
}

type settlementEventView struct {
	ID           int64                 `json:"id"`
	Kind         domain.SettlementKind `json:"kind"`
	Transitioned bool                  `json:"transitioned"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

func newSettlementEventView(e *schema.SettlementEvent) settlementEventView {
	return settlementEventView{
		ID:           e.ID,
		Kind:         e.Kind,
		Transitioned: e.Transitioned,
		OccurredAt:   e.OccurredAt,
	}
}

type settlementView struct {
	Event        *settlementEventView `json:"event,omitempty"`
	Previous     domain.AssetStatus   `json:"previous"`
	Current      domain.AssetStatus   `json:"current"`
	Transitioned bool                 `json:"transitioned"`
	Reason       string               `json:"reason,omitempty"`
}

func newSettlementView(r *settlement.Result) *settlementView {
	if r == nil {
		return nil
	}
	v := &settlementView{
		Previous:     r.Previous,
		Current:      r.Current,
		Transitioned: r.Transitioned,
	}
	if r.Event != nil {
		e := newSettlementEventView(r.Event)
		v.Event = &e
	}
	if r.Reason != nil {
		v.Reason = r.Reason.Error()
	}
	return v
}

type registrationJobView struct {
	ID            string                    `json:"id"`
	AssetID       int64                     `json:"asset_id"`
	Status        domain.RegistrationStatus `json:"status"`
	Attempts      int                       `json:"attempts"`
	LastError     *string                   `json:"last_error,omitempty"`
	NextAttemptAt time.Time                 `json:"next_attempt_at"`
	Reference     *string                   `json:"reference,omitempty"`
}

func newRegistrationJobView(j *schema.RegistrationJob) registrationJobView {
	return registrationJobView{
		ID:            j.ID,
		AssetID:       j.AssetID,
		Status:        j.Status,
		Attempts:      j.Attempts,
		LastError:     j.LastError,
		NextAttemptAt: j.NextAttemptAt,
		Reference:     j.Reference,
	}
}
