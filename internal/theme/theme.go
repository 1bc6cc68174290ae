package theme

import (
	"errors"
	"fmt"
	"strings"
)

// Theme is the two-valued visual mode selector.
//
// The zero value is Light, which is also the configured default. String
// serialization is confined to Parse and String so invalid values can only
// enter through that one validated seam.
type Theme int

const (
	Light Theme = iota
	Dark
)

// Default is the theme used when neither a persisted preference nor a
// system signal is available.
const Default = Light

// ErrInvalidTheme is returned when a string does not name a known theme.
var ErrInvalidTheme = errors.New("invalid theme")

// Parse decodes the storage representation of a theme.
//
// Only the exact literals "light" and "dark" are accepted, after trimming
// surrounding whitespace. Anything else fails with ErrInvalidTheme.
func Parse(raw string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	default:
		return Default, fmt.Errorf("%w: %q", ErrInvalidTheme, raw)
	}
}

// String returns the storage representation: "light" or "dark".
func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// Opposite returns the other variant.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}
