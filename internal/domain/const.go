package domain

const (
	// Holder constants
	ORIGIN_HOLDER_LABEL = "Origin"
	VAULT_HOLDER_ID     = "vault"
	VAULT_HOLDER_LABEL  = "Vault"

	// Clearance policy: fixed two-tier risk scoring
	RISK_SCORE_FLAGGED = 0.85
	RISK_SCORE_CLEARED = 0.05

	// Issuance constants
	MIN_EDITION_TOTAL    = 1
	MAX_EDITION_TOTAL    = 21
	DEFAULT_VERIFICATION = "SOVN Clean"

	// Ledger constants
	MIN_FRACTION_COUNT = 2
	MAX_FRACTION_COUNT = 10000
)
