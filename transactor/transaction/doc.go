// Package transaction defines the operation record fed into the ledger and the
// typed domain errors every state transition reports.
//
// Core flow:
//   - ParseType maps an external kind tag to one of the five supported types.
//   - Operation.Validate checks amount presence against the kind before dispatch.
//   - DomainError carries a stable code that unwraps to a sentinel in constants.
package transaction
