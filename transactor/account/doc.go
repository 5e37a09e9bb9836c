// Package account implements the per-client balance state machine.
//
// An Account is Active until a successful chargeback locks it; a locked account
// rejects every further operation. While active, each recorded deposit is either
// Normal or Disputed, and dispute, resolve and chargeback move its amount between
// available and held funds.
package account
