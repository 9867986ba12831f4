package settlement

import (
	"fmt"

	"github.com/bomac1193/Issuance/internal/domain"
)

// Decision is the outcome of applying one settlement trigger to an asset
type Decision struct {
	// Next is the status after the trigger
	Next domain.AssetStatus
	// Transitioned is true only for the trigger that moved the asset to SETTLED
	Transitioned bool
	// Reason is domain.ErrInvalidRuleTransition when the trigger does not match the rule
	Reason error
}

// Decide applies a settlement event to an asset given only its rule and current status.
// Settlement is monotonic, so the first qualifying event is the one that finds the asset ISSUED.
func Decide(rule domain.SettlementRule, status domain.AssetStatus, kind domain.SettlementKind) Decision {
	if status.IsTerminal() {
		return Decision{Next: status}
	}

	switch rule {
	case domain.SettlementRuleImmediate:
		return settle()
	case domain.SettlementRuleOnFirstPlay:
		if kind == domain.SettlementKindPlay {
			return settle()
		}
	case domain.SettlementRuleOnTransfer:
		if kind == domain.SettlementKindTransfer {
			return settle()
		}
	case domain.SettlementRuleCustom:
		// No automatic trigger
	default:
		return Decision{Next: status, Reason: fmt.Errorf("%w: %q", domain.ErrInvalidSettlementRule, rule)}
	}

	return Decision{
		Next:   status,
		Reason: fmt.Errorf("%w: %s event under %s", domain.ErrInvalidRuleTransition, kind, rule),
	}
}

// DecideCheck applies the evaluation-time trigger, which only settles IMMEDIATE assets
func DecideCheck(rule domain.SettlementRule, status domain.AssetStatus) Decision {
	if status.IsTerminal() {
		return Decision{Next: status}
	}
	if rule == domain.SettlementRuleImmediate {
		return settle()
	}
	return Decision{Next: status}
}

func settle() Decision {
	return Decision{Next: domain.AssetStatusSettled, Transitioned: true}
}
