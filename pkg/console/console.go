// Package console renders dsr's human-mode side channel: status lines,
// warnings, and errors. Machine mode never calls into this package — it
// writes the run envelope straight to stdout as JSON instead (§6).
package console

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/styles"
)

func stderrIsTTY() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func render(style interface{ Render(...string) string }, prefix, message string) string {
	text := prefix + message
	if stderrIsTTY() {
		return style.Render(text)
	}
	return text
}

// FormatSuccessMessage renders a completed-stage or completed-run line.
func FormatSuccessMessage(message string) string {
	return render(styles.Success, "✓ ", message)
}

// FormatInfoMessage renders a neutral progress line.
func FormatInfoMessage(message string) string {
	return render(styles.Info, "• ", message)
}

// FormatWarningMessage renders a non-fatal warning line.
func FormatWarningMessage(message string) string {
	return render(styles.Warning, "⚠ ", message)
}

// FormatErrorMessage renders a fatal error line, including its stable code
// when the caller has one (see pkg/errs).
func FormatErrorMessage(message string) string {
	return render(styles.Error, "✗ ", message)
}

// FormatCommandMessage highlights an invoked or suggested command.
func FormatCommandMessage(command string) string {
	return render(styles.Command, "", command)
}

// FormatListItem renders a single bullet for a list of paths/identifiers.
// Callers print it through Printf like every other console line, so it goes
// to stderr; human mode writes nothing to stdout.
func FormatListItem(item string) string {
	return fmt.Sprintf("  %s", item)
}

// Printf writes a formatted line to the side channel (stderr) unconditionally.
// Used for progress/verbose output that isn't a status/warning/error line.
func Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
