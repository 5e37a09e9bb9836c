package constant

// Operation type tags as they appear in delimited records and JSON payloads.
const (
	// DEPOSIT identifies deposit operations.
	DEPOSIT = "deposit"
	// WITHDRAWAL identifies withdrawal operations.
	WITHDRAWAL = "withdrawal"
	// DISPUTE identifies dispute operations.
	DISPUTE = "dispute"
	// RESOLVE identifies resolve operations.
	RESOLVE = "resolve"
	// CHARGEBACK identifies chargeback operations.
	CHARGEBACK = "chargeback"
)
