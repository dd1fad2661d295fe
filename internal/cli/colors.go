package cli

// ANSI color codes for terminal output.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// FormatStatus returns a colored status string.
func FormatStatus(status string) string {
	switch status {
	case "ok", "verified", "written":
		return ColorGreen + status + ColorReset
	case "failed", "invalid", "expired":
		return ColorRed + status + ColorReset
	case "generated", "supplied":
		return ColorYellow + status + ColorReset
	default:
		return status
	}
}

// Colorize wraps s in color unless color output is disabled.
func Colorize(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + ColorReset
}
