// Package logger provides namespaced debug logging gated by the DEBUG
// environment variable, following the conventions of the npm "debug"
// package: DEBUG=* enables everything, DEBUG=dsr:throttle,dsr:watch enables
// specific namespaces, DEBUG=dsr:*,-dsr:watch:jitter enables a namespace
// while excluding a sub-pattern.
package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Logger emits diagnostic lines for one namespace to stderr.
type Logger struct {
	namespace string
	enabled   bool
	color     string

	mu   sync.Mutex
	last time.Time
}

var (
	debugPatterns = strings.Split(os.Getenv("DEBUG"), ",")
	colorsWanted  = os.Getenv("DEBUG_COLORS") != "0"
	stderrIsTTY   = isatty.IsTerminal(os.Stderr.Fd())

	palette = []string{
		"\033[38;5;33m", "\033[38;5;35m", "\033[38;5;166m", "\033[38;5;125m",
		"\033[38;5;37m", "\033[38;5;161m", "\033[38;5;136m", "\033[38;5;124m",
		"\033[38;5;28m", "\033[38;5;63m", "\033[38;5;95m", "\033[38;5;21m",
	}
	resetCode = "\033[0m"
)

// New returns a Logger for namespace, deciding enablement and color once.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   namespaceEnabled(namespace),
		color:     namespaceColor(namespace),
		last:      time.Now(),
	}
}

// Enabled reports whether this namespace is currently active.
func (l *Logger) Enabled() bool { return l.enabled }

// Printf writes a formatted line, prefixed with the namespace and suffixed
// with the time elapsed since this namespace's previous line.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprintf(format, args...))
}

// Print writes a line built from args the way fmt.Sprint would.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.write(fmt.Sprint(args...))
}

func (l *Logger) write(message string) {
	l.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(l.last)
	l.last = now
	l.mu.Unlock()

	if l.color != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s %s +%s\n", l.color, l.namespace, resetCode, message, elapsedString(elapsed))
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, elapsedString(elapsed))
}

func elapsedString(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

func namespaceColor(namespace string) string {
	if !colorsWanted || !stderrIsTTY {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(namespace))
	return palette[h.Sum32()%uint32(len(palette))]
}

func namespaceEnabled(namespace string) bool {
	enabled := false
	for _, raw := range debugPatterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "-") {
			if matches(namespace, strings.TrimPrefix(pattern, "-")) {
				return false // exclusions always win
			}
			continue
		}
		if matches(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

func matches(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	switch {
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(namespace, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(namespace, strings.TrimPrefix(pattern, "*"))
	default:
		parts := strings.SplitN(pattern, "*", 2)
		return len(parts) == 2 && strings.HasPrefix(namespace, parts[0]) && strings.HasSuffix(namespace, parts[1])
	}
}
