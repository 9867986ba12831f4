package domain

import "errors"

var (
	// ErrAssetNotFound is returned when an asset does not exist
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAsset is returned when required issuance fields are missing
	ErrInvalidAsset = errors.New("invalid asset")

	// ErrInvalidEditionTotal is returned when edition_total is outside [1, 21]
	ErrInvalidEditionTotal = errors.New("edition total must be between 1 and 21")

	// ErrInvalidSettlementRule is returned for an unknown settlement rule
	ErrInvalidSettlementRule = errors.New("invalid settlement rule")

	// ErrInvalidSettlementKind is returned for an unknown settlement event kind
	ErrInvalidSettlementKind = errors.New("invalid settlement kind")

	// ErrInvalidRuleTransition marks a settlement event irrelevant to the asset's rule.
	// It is non-fatal: the event is recorded and the status is left unchanged.
	ErrInvalidRuleTransition = errors.New("settlement event does not trigger the configured rule")

	// ErrExtraction is returned when audio cannot be turned into a fingerprint
	ErrExtraction = errors.New("audio extraction failed")

	// ErrUnsupportedAudioFormat is returned when the audio container is not supported by the decoder
	ErrUnsupportedAudioFormat = errors.New("unsupported audio format")

	// ErrProviderUnavailable is returned when a rights-check provider fails or times out
	ErrProviderUnavailable = errors.New("rights-check provider unavailable")

	// ErrClearanceIndeterminate is returned when no provider matched but at least one could not answer
	ErrClearanceIndeterminate = errors.New("clearance is indeterminate")

	// ErrAlreadyEvaluated is returned when clearance has already been decided for an asset
	ErrAlreadyEvaluated = errors.New("clearance already evaluated")

	// ErrAlreadyFractionalized is returned when fractionalizing an asset a second time
	ErrAlreadyFractionalized = errors.New("asset already fractionalized")

	// ErrNotCleared is returned when a ledger operation requires a CLEARED asset
	ErrNotCleared = errors.New("asset is not cleared")

	// ErrNotFractionalized is returned when transferring shares of an asset that has no ledger
	ErrNotFractionalized = errors.New("asset is not fractionalized")

	// ErrInvalidFractionCount is returned when fraction_count is outside [2, 10000]
	ErrInvalidFractionCount = errors.New("fraction count must be between 2 and 10000")

	// ErrInvalidShareAmount is returned for a non-positive amount or a self-transfer
	ErrInvalidShareAmount = errors.New("invalid share amount")

	// ErrInsufficientShares is returned when the source holder owns fewer shares than requested
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrLedgerInvariant is returned when a mutation would break share conservation.
	// It signals a defect; the mutation is aborted and prior state is kept.
	ErrLedgerInvariant = errors.New("ledger invariant violated")

	// ErrInvalidHolder is returned for an empty holder identity or label
	ErrInvalidHolder = errors.New("invalid holder")

	// ErrRegistrationFailed is returned when the external registrar rejects a registration
	ErrRegistrationFailed = errors.New("external registration failed")

	// ErrRegistrarUnavailable is returned when no registrar is configured or reachable
	ErrRegistrarUnavailable = errors.New("external registrar unavailable")

	// ErrRegistrationJobNotFound is returned when no outbox job exists for an asset
	ErrRegistrationJobNotFound = errors.New("registration job not found")
)
