package utils

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Same shape check the capture form applied before submitting.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether value looks like an address once trimmed.
func ValidateEmail(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return false
	}
	return emailPattern.MatchString(trimmed)
}

// NormalizeEmail is the stored form of an address.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// EmailFingerprint identifies an address in logs without revealing it.
func EmailFingerprint(email string) string {
	sum := blake2b.Sum256([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:8])
}

// SanitizeMetadata drops nil and empty-string values.
func SanitizeMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		case *string:
			if val == nil || *val == "" {
				continue
			}
			v = *val
		}
		out[k] = v
	}
	return out
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
