package audithook

// Action constants for audit events.
const (
	// Program actions
	ActionProgramCreated      = "program.created"
	ActionStartTimeUpdated    = "start_time.updated"
	ActionUnlockPeriodUpdated = "unlock_period.updated"

	// Beneficiary actions
	ActionBeneficiaryAdded   = "beneficiary.added"
	ActionBeneficiariesAdded = "beneficiaries.added"

	// Claim actions
	ActionClaimSettled = "claim.settled"
	ActionClaimFailed  = "claim.failed"
)

// Resource constants for audit events.
const (
	ResourceProgram     = "program"
	ResourceBeneficiary = "beneficiary"
	ResourceClaim       = "claim"
)

// Category constants for audit events.
const (
	CategoryVesting = "vesting"
	CategoryClaim   = "claim"
	CategoryAdmin   = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
