// Package log defines the logging interface and typed logging fields used across
// lib-transactor.
//
// Adapters (such as the zap package) implement Logger so the ledger, the stream
// driver and the transport layers keep their logging calls backend-agnostic.
package log
