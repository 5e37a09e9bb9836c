// Package constant holds shared sentinel errors, header keys and telemetry names.
package constant
