package core

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest principal name accepted, in bytes.
const MaxNameLength = 64

// NormalizeName returns the canonical (NFC, trimmed) form of a principal name.
// Names that differ only in Unicode composition refer to the same principal.
func NormalizeName(name string) (string, error) {
	name = canonicalName(name)
	if name == "" {
		return "", fmt.Errorf("principal name cannot be empty: %w", ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("principal name longer than %d bytes: %w", MaxNameLength, ErrInvalidArgument)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return "", fmt.Errorf("invalid character %q in principal name: %w", r, ErrInvalidArgument)
		}
	}
	return name, nil
}

func canonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
