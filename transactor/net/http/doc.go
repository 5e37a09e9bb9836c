// Package http exposes the ledger as a Fiber batch service.
//
// POST /v1/transactions/process applies a list of operations to a fresh
// ledger and answers with the final accounts and every rejected operation.
// The package also carries the shared middleware: request ids, access
// logging, tracing, panic recovery and a single error rendering contract.
package http
