// Package transactor holds the helpers shared by every layer of the
// transaction engine: environment configuration, request-scoped context
// values, business error mapping and small conversion utilities.
//
// The engine itself lives in the account and ledger packages; csv, stream,
// net/http and rpc adapt it to files and remote callers.
package transactor
