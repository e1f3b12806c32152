// Package color decorates terminal status lines.
package color

import (
	"os"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor honours NO_COLOR (https://no-color.org/) and dumb terminals.
func shouldEnableColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

func (c *Color) wrap(code, text string) string {
	if !c.enabled {
		return text
	}
	return code + text + Reset
}

// OK marks a success tag such as "[OK]".
func (c *Color) OK(text string) string {
	return c.wrap(Green, text)
}

// Info marks an informational tag such as "[INFO]".
func (c *Color) Info(text string) string {
	return c.wrap(Cyan, text)
}

// Warn marks a warning.
func (c *Color) Warn(text string) string {
	return c.wrap(Yellow, text)
}

// Error marks an error.
func (c *Color) Error(text string) string {
	return c.wrap(Red, text)
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	return c.wrap(Bold, text)
}
