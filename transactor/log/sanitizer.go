package log

import (
	"context"
	"fmt"
	"strings"
)

// controlCharReplacer escapes characters that could forge extra log lines (CWE-117).
var controlCharReplacer = strings.NewReplacer(
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// SanitizeString escapes control characters in a single string value.
func SanitizeString(s string) string {
	return controlCharReplacer.Replace(s)
}

// SafeError logs errors with explicit production-aware sanitization.
// When production is true, only the error type is logged.
func SafeError(logger Logger, ctx context.Context, msg string, err error, production bool) {
	if logger == nil || err == nil {
		return
	}

	if !logger.Enabled(LevelError) {
		return
	}

	if production {
		logger.Log(ctx, LevelError, msg, String("error_type", fmt.Sprintf("%T", err)))
		return
	}

	logger.Log(ctx, LevelError, msg, Err(err))
}
