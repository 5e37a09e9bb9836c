// Package stream runs a delimited operation stream through a fresh ledger
// and writes the resulting account report.
package stream
