package system

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"shade-terminal/internal/theme"
)

// ApplyChromeTint asks the terminal emulator to repaint its default
// background to match the theme, the terminal analogue of a status-bar tint
// hint. Purely best effort: terminals that ignore the OSC sequence simply
// keep their own background, and non-TTY outputs are skipped entirely.
func ApplyChromeTint(t theme.Theme) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return
	}
	out := termenv.NewOutput(os.Stdout)
	out.SetBackgroundColor(termenv.RGBColor(theme.RolesFor(t).Background))
}
