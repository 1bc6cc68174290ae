// Package theme defines the closed light/dark theme type and resolves typed,
// immutable style bundles for the UI surfaces that present it.
//
// Integration example:
//
//	t, err := theme.Parse(stored)
//	if err != nil {
//		t = theme.Default
//	}
//	bundle := theme.Resolve(t, os.Getenv("TERM"))
//	header := bundle.Header.Render(title)
package theme
