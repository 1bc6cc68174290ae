package theme

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SemanticRoles defines stable semantic color slots used across the UI.
//
// Components should generally depend on these semantic roles rather than
// theme-specific color literals.
type SemanticRoles struct {
	Background string
	Foreground string
	Accent     string
	Muted      string
	Danger     string
	Success    string
	Border     string
}

// StyleSet provides strongly-typed lipgloss styles for the primary UI
// surfaces rendered by the settings TUI.
type StyleSet struct {
	Header       lipgloss.Style
	Viewport     lipgloss.Style
	Status       lipgloss.Style
	Announcement lipgloss.Style
	Help         lipgloss.Style
	Swatch       lipgloss.Style
}

// Bundle contains all display styles needed to present one theme.
type Bundle struct {
	StyleSet
	Roles SemanticRoles
}

var roles = map[Theme]SemanticRoles{
	Light: {
		Background: "#F4F5F6",
		Foreground: "#101F38",
		Accent:     "#2F6FED",
		Muted:      "#D6DAE0",
		Danger:     "#C92035",
		Success:    "#1F6B4A",
		Border:     "#DCE0E5",
	},
	Dark: {
		Background: "#141D2B",
		Foreground: "#F2F2F2",
		Accent:     "#8BC34A",
		Muted:      "#2A3850",
		Danger:     "#E57373",
		Success:    "#4DB6AC",
		Border:     "#2A3850",
	},
}

// ResolveOptions controls how a bundle is selected once a TERM profile exists.
type ResolveOptions struct {
	Term       string
	ForceColor bool
	ForceMono  bool
}

// Resolve resolves a concrete style bundle for a theme and TERM value.
//
// For lower-capability terminals (xterm-256color and below), Resolve returns
// a monochrome/high-contrast bundle unless color is explicitly forced.
func Resolve(t Theme, term string) Bundle {
	return resolveWith(t, ResolveOptions{Term: term}, detectTermProfile)
}

// ResolveWithDetector resolves a bundle using a caller-provided TERM detector.
//
// This is primarily intended for tests and advanced integrations that want
// custom TERM/profile mapping behavior without changing palette logic.
func ResolveWithDetector(t Theme, opts ResolveOptions, detector TermProfileDetector) Bundle {
	if detector == nil {
		detector = detectTermProfile
	}
	return resolveWith(t, opts, detector)
}

// ResolveFromEnv resolves a bundle honoring runtime overrides:
//   - SHADE_FORCE_COLOR (boolean) keeps color on low-capability terminals
//   - SHADE_FORCE_MONO (boolean) forces the monochrome bundle
func ResolveFromEnv(t Theme, term string) Bundle {
	return resolveWith(t, ResolveOptions{
		Term:       term,
		ForceColor: parseBoolEnv("SHADE_FORCE_COLOR"),
		ForceMono:  parseBoolEnv("SHADE_FORCE_MONO"),
	}, detectTermProfile)
}

// RolesFor returns the semantic roles for a theme at full color capability.
func RolesFor(t Theme) SemanticRoles {
	return roles[normalize(t)]
}

func resolveWith(t Theme, opts ResolveOptions, detector TermProfileDetector) Bundle {
	term := strings.TrimSpace(opts.Term)
	if term == "" {
		term = os.Getenv("TERM")
	}

	profile := detector(term)
	if shouldUseMonochrome(profile, opts) {
		return buildBundle(monochromeRoles(normalize(t)))
	}
	return buildBundle(roles[normalize(t)])
}

func normalize(t Theme) Theme {
	if t != Light && t != Dark {
		return Default
	}
	return t
}

func buildBundle(r SemanticRoles) Bundle {
	fg := lipgloss.Color(r.Foreground)
	bg := lipgloss.Color(r.Background)
	accent := lipgloss.Color(r.Accent)
	muted := lipgloss.Color(r.Muted)
	border := lipgloss.Color(r.Border)

	return Bundle{
		StyleSet: StyleSet{
			Header:       lipgloss.NewStyle().Foreground(bg).Background(accent).Bold(true).Padding(0, 1),
			Viewport:     lipgloss.NewStyle().Foreground(fg).Background(bg),
			Status:       lipgloss.NewStyle().Foreground(fg).Background(muted).Padding(0, 1),
			Announcement: lipgloss.NewStyle().Foreground(accent).Bold(true),
			Help:         lipgloss.NewStyle().Foreground(muted),
			Swatch: lipgloss.NewStyle().Foreground(fg).Background(bg).
				Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 2),
		},
		Roles: r,
	}
}

func monochromeRoles(t Theme) SemanticRoles {
	if t == Dark {
		return SemanticRoles{
			Background: "#000000",
			Foreground: "#FFFFFF",
			Accent:     "#FFFFFF",
			Muted:      "#8F8F8F",
			Danger:     "#E6E6E6",
			Success:    "#CFCFCF",
			Border:     "#8F8F8F",
		}
	}
	return SemanticRoles{
		Background: "#FFFFFF",
		Foreground: "#000000",
		Accent:     "#000000",
		Muted:      "#8F8F8F",
		Danger:     "#1A1A1A",
		Success:    "#333333",
		Border:     "#8F8F8F",
	}
}

func parseBoolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func shouldUseMonochrome(profile TermProfile, opts ResolveOptions) bool {
	if opts.ForceMono {
		return true
	}
	if opts.ForceColor {
		return false
	}
	if !profile.IsTTY {
		return true
	}
	if !profile.TrueColor && profile.Colors <= 256 {
		return true
	}
	return false
}
