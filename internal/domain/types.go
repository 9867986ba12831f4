package domain

import (
	"fmt"
	"strings"
	"time"
)

// SettlementRule decides which lifecycle event makes an asset's issuance final
type SettlementRule string

const (
	SettlementRuleImmediate   SettlementRule = "IMMEDIATE"
	SettlementRuleOnFirstPlay SettlementRule = "ON_FIRST_PLAY"
	SettlementRuleOnTransfer  SettlementRule = "ON_TRANSFER"
	SettlementRuleCustom      SettlementRule = "CUSTOM"
)

// IsValidSettlementRule checks if a settlement rule is one of the known rules
func IsValidSettlementRule(rule SettlementRule) bool {
	switch rule {
	case SettlementRuleImmediate,
		SettlementRuleOnFirstPlay,
		SettlementRuleOnTransfer,
		SettlementRuleCustom:
		return true
	}
	return false
}

// ParseSettlementRule parses a settlement rule, case-insensitively.
// An empty string yields the default rule (IMMEDIATE).
func ParseSettlementRule(s string) (SettlementRule, error) {
	if strings.TrimSpace(s) == "" {
		return SettlementRuleImmediate, nil
	}
	rule := SettlementRule(strings.ToUpper(strings.TrimSpace(s)))
	if !IsValidSettlementRule(rule) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSettlementRule, s)
	}
	return rule, nil
}

// AssetStatus is the settlement status of an asset. SETTLED is terminal.
type AssetStatus string

const (
	AssetStatusIssued  AssetStatus = "ISSUED"
	AssetStatusSettled AssetStatus = "SETTLED"
)

// IsTerminal reports whether no further status transition is possible
func (s AssetStatus) IsTerminal() bool {
	return s == AssetStatusSettled
}

// ClearanceStatus is the rights-clearance verdict of an asset.
// It moves once from UNCHECKED to CLEARED or FLAGGED and never changes again.
type ClearanceStatus string

const (
	ClearanceStatusUnchecked ClearanceStatus = "UNCHECKED"
	ClearanceStatusCleared   ClearanceStatus = "CLEARED"
	ClearanceStatusFlagged   ClearanceStatus = "FLAGGED"
)

// IsDecided reports whether the clearance verdict has been set
func (s ClearanceStatus) IsDecided() bool {
	return s == ClearanceStatusCleared || s == ClearanceStatusFlagged
}

// SettlementKind is the kind of a settlement-relevant lifecycle event
type SettlementKind string

const (
	SettlementKindPlay     SettlementKind = "PLAY"
	SettlementKindTransfer SettlementKind = "TRANSFER"
)

// ParseSettlementKind parses a settlement event kind, case-insensitively
func ParseSettlementKind(s string) (SettlementKind, error) {
	kind := SettlementKind(strings.ToUpper(strings.TrimSpace(s)))
	switch kind {
	case SettlementKindPlay, SettlementKindTransfer:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSettlementKind, s)
}

// RegistrationStatus is the state of an external-registration outbox job
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "PENDING"
	RegistrationStatusSucceeded RegistrationStatus = "SUCCEEDED"
	RegistrationStatusFailed    RegistrationStatus = "FAILED"
	RegistrationStatusAbandoned RegistrationStatus = "ABANDONED"
)

// IsRetryable reports whether the job can still be attempted by the sweeper
func (s RegistrationStatus) IsRetryable() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusFailed
}

// Holder identifies a custody or share holder
type Holder struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// VaultHolder is the custodial holder that receives every newly issued asset
// and the full share count on fractionalization
var VaultHolder = Holder{ID: VAULT_HOLDER_ID, Label: VAULT_HOLDER_LABEL}

// AssetEventType is the type of a published asset lifecycle event
type AssetEventType string

const (
	AssetEventIssued             AssetEventType = "issued"
	AssetEventCleared            AssetEventType = "cleared"
	AssetEventFlagged            AssetEventType = "flagged"
	AssetEventSettled            AssetEventType = "settled"
	AssetEventCustodyTransferred AssetEventType = "custody_transferred"
	AssetEventFractionalized     AssetEventType = "fractionalized"
	AssetEventSharesTransferred  AssetEventType = "shares_transferred"
	AssetEventRegistered         AssetEventType = "registered"
	AssetEventRegistrationFailed AssetEventType = "registration_failed"
	AssetEventDeleted            AssetEventType = "deleted"
)

// AssetEvent is a normalized lifecycle notification published after a committed mutation
type AssetEvent struct {
	Type       AssetEventType `json:"type"`
	AssetID    int64          `json:"asset_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
