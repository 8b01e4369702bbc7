package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode represents the color output mode.
type ColorMode int

const (
	// ColorAuto enables colors if stdout is a TTY.
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on.
	ColorAlways
	// ColorNever disables colors.
	ColorNever
)

// Colors holds the color functions for the different output roles. Tables
// stay uncolored; ANSI escapes would break tabwriter column alignment.
type Colors struct {
	Header func(format string, a ...any) string
	Pass   func(format string, a ...any) string
	Fail   func(format string, a ...any) string
	Warn   func(format string, a ...any) string
	Accent func(format string, a ...any) string
	Muted  func(format string, a ...any) string
}

// NewColors creates a Colors instance for the given mode.
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		// Plain fmt, not a zero-attribute color.Color: the latter still
		// wraps output in reset escapes when the global NoColor is off.
		noColor := func(format string, a ...any) string {
			if len(a) == 0 {
				return format
			}
			return fmt.Sprintf(format, a...)
		}
		return &Colors{
			Header: noColor,
			Pass:   noColor,
			Fail:   noColor,
			Warn:   noColor,
			Accent: noColor,
			Muted:  noColor,
		}
	}

	return &Colors{
		Header: color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Pass:   color.New(color.FgGreen).SprintfFunc(),
		Fail:   color.New(color.FgRed, color.Bold).SprintfFunc(),
		Warn:   color.New(color.FgYellow).SprintfFunc(),
		Accent: color.New(color.FgCyan, color.Bold).SprintfFunc(),
		Muted:  color.New(color.FgHiBlack).SprintfFunc(),
	}
}

// Status renders an HTTP status code with outcome-appropriate color.
func (c *Colors) Status(code int) string {
	switch {
	case code >= 200 && code < 300:
		return c.Pass("%d", code)
	case code >= 300 && code < 400:
		return c.Warn("%d", code)
	default:
		return c.Fail("%d", code)
	}
}

// ParseColorMode parses a color mode string.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}
