package account

import "github.com/shopspring/decimal"

// Snapshot is the read-only report view of one account.
// Decimals marshal to JSON as quoted strings.
type Snapshot struct {
	Client    uint16          `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

// Snapshot copies the account state for reporting.
func (a *Account) Snapshot(client uint16) Snapshot {
	return Snapshot{
		Client:    client,
		Available: a.available,
		Held:      a.held,
		Total:     a.total,
		Locked:    a.locked,
	}
}
