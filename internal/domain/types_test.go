package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSettlementRule(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected SettlementRule
		wantErr  bool
	}{
		{
			name:     "empty defaults to immediate",
			input:    "",
			expected: SettlementRuleImmediate,
		},
		{
			name:     "immediate",
			input:    "IMMEDIATE",
			expected: SettlementRuleImmediate,
		},
		{
			name:     "lower case on first play",
			input:    "on_first_play",
			expected: SettlementRuleOnFirstPlay,
		},
		{
			name:     "padded on transfer",
			input:    "  ON_TRANSFER ",
			expected: SettlementRuleOnTransfer,
		},
		{
			name:     "custom",
			input:    "CUSTOM",
			expected: SettlementRuleCustom,
		},
		{
			name:    "unknown rule",
			input:   "ON_SALE",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ParseSettlementRule(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSettlementRule)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, rule)
		})
	}
}

func TestParseSettlementKind(t *testing.T) {
	kind, err := ParseSettlementKind("play")
	assert.NoError(t, err)
	assert.Equal(t, SettlementKindPlay, kind)

	kind, err = ParseSettlementKind("TRANSFER")
	assert.NoError(t, err)
	assert.Equal(t, SettlementKindTransfer, kind)

	_, err = ParseSettlementKind("")
	assert.ErrorIs(t, err, ErrInvalidSettlementKind)

	_, err = ParseSettlementKind("SALE")
	assert.ErrorIs(t, err, ErrInvalidSettlementKind)
}

func TestIsValidSettlementRule(t *testing.T) {
	assert.True(t, IsValidSettlementRule(SettlementRuleImmediate))
	assert.True(t, IsValidSettlementRule(SettlementRuleOnFirstPlay))
	assert.True(t, IsValidSettlementRule(SettlementRuleOnTransfer))
	assert.True(t, IsValidSettlementRule(SettlementRuleCustom))
	assert.False(t, IsValidSettlementRule(SettlementRule("")))
	assert.False(t, IsValidSettlementRule(SettlementRule("immediate")))
}

func TestStatusPredicates(t *testing.T) {
	assert.False(t, AssetStatusIssued.IsTerminal())
	assert.True(t, AssetStatusSettled.IsTerminal())

	assert.False(t, ClearanceStatusUnchecked.IsDecided())
	assert.True(t, ClearanceStatusCleared.IsDecided())
	assert.True(t, ClearanceStatusFlagged.IsDecided())

	assert.True(t, RegistrationStatusPending.IsRetryable())
	assert.True(t, RegistrationStatusFailed.IsRetryable())
	assert.False(t, RegistrationStatusSucceeded.IsRetryable())
	assert.False(t, RegistrationStatusAbandoned.IsRetryable())
}
