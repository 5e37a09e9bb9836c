package transactor

import (
	"math"
	"net"
	"strings"

	"github.com/google/uuid"
)

// IsNilOrEmpty reports whether s is nil or only whitespace.
func IsNilOrEmpty(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)

	return err == nil
}

// GenerateUUIDv7 returns a time-ordered UUID.
func GenerateUUIDv7() (uuid.UUID, error) {
	return uuid.NewV7()
}

// SafeUint32ToUint16 converts v when it fits in 16 bits.
func SafeUint32ToUint16(v uint32) (uint16, bool) {
	if v > math.MaxUint16 {
		return 0, false
	}

	return uint16(v), true
}

// ValidateServerAddress returns addr when it has a host:port form, or "".
func ValidateServerAddress(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return ""
	}

	return addr
}
