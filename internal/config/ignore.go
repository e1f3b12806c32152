package config

import (
	"path/filepath"
	"strings"
)

// Category names an object category that ignore patterns can be attached to.
type Category string

const (
	Schemas    Category = "schemas"
	Extensions Category = "extensions"
	Types      Category = "types"
	Functions  Category = "functions"
	Triggers   Category = "triggers"
	Views      Category = "views"
	Sequences  Category = "sequences"
	Policies   Category = "policies"
)

// IgnoreConfig holds, per category, glob patterns of object names to leave
// out of the extracted document.
type IgnoreConfig struct {
	Schemas    []string
	Extensions []string
	Types      []string
	Functions  []string
	Triggers   []string
	Views      []string
	Sequences  []string
	Policies   []string
}

func (c *IgnoreConfig) patterns(category Category) []string {
	switch category {
	case Schemas:
		return c.Schemas
	case Extensions:
		return c.Extensions
	case Types:
		return c.Types
	case Functions:
		return c.Functions
	case Triggers:
		return c.Triggers
	case Views:
		return c.Views
	case Sequences:
		return c.Sequences
	case Policies:
		return c.Policies
	}
	return nil
}

// Empty reports whether no pattern is configured at all.
func (c *IgnoreConfig) Empty() bool {
	if c == nil {
		return true
	}
	for _, cat := range []Category{Schemas, Extensions, Types, Functions, Triggers, Views, Sequences, Policies} {
		if len(c.patterns(cat)) > 0 {
			return false
		}
	}
	return true
}

// ShouldIgnore reports whether an object called name in the given category
// is excluded. Patterns support '*' wildcards; a pattern starting with '!'
// keeps matching names even when another pattern excludes them. Objects
// without a name are never ignored.
func (c *IgnoreConfig) ShouldIgnore(category Category, name string) bool {
	if c == nil || name == "" {
		return false
	}
	patterns := c.patterns(category)
	if len(patterns) == 0 {
		return false
	}

	matched := false
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		if matchPattern(pattern, name) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") && matchPattern(pattern[1:], name) {
			return false
		}
	}
	return true
}

// matchPattern falls back to a literal comparison for malformed globs.
func matchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return matched
}
