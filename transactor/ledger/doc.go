// Package ledger routes operations to per-client accounts.
//
// A Ledger owns its accounts exclusively and is not safe for concurrent use.
// Services handling concurrent requests build one Ledger per request.
package ledger
