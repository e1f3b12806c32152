// Package config loads the optional extractor configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".pgextract.toml"

// Config is the extractor configuration.
type Config struct {
	// DollarTags lists the dollar-quote tags that close a function body
	// when found at the start of a line followed by ';'. Empty means "$$" only.
	DollarTags []string
	Ignore     *IgnoreConfig
}

type tomlConfig struct {
	Schemas    categoryConfig `toml:"schemas,omitempty"`
	Extensions categoryConfig `toml:"extensions,omitempty"`
	Types      categoryConfig `toml:"types,omitempty"`
	Functions  functionConfig `toml:"functions,omitempty"`
	Triggers   categoryConfig `toml:"triggers,omitempty"`
	Views      categoryConfig `toml:"views,omitempty"`
	Sequences  categoryConfig `toml:"sequences,omitempty"`
	Policies   categoryConfig `toml:"policies,omitempty"`
}

type categoryConfig struct {
	Patterns []string `toml:"patterns,omitempty"`
}

type functionConfig struct {
	Patterns   []string `toml:"patterns,omitempty"`
	DollarTags []string `toml:"dollar_tags,omitempty"`
}

// Load reads FileName from the working directory. It returns nil, nil when
// the file does not exist.
func Load() (*Config, error) {
	return LoadFromPath(FileName)
}

// LoadFromPath reads the configuration at path. It returns nil, nil when the
// file does not exist.
func LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var raw tomlConfig
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	for _, tag := range raw.Functions.DollarTags {
		if err := validateDollarTag(tag); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg := &Config{
		DollarTags: raw.Functions.DollarTags,
		Ignore: &IgnoreConfig{
			Schemas:    raw.Schemas.Patterns,
			Extensions: raw.Extensions.Patterns,
			Types:      raw.Types.Patterns,
			Functions:  raw.Functions.Patterns,
			Triggers:   raw.Triggers.Patterns,
			Views:      raw.Views.Patterns,
			Sequences:  raw.Sequences.Patterns,
			Policies:   raw.Policies.Patterns,
		},
	}
	if cfg.Ignore.Empty() {
		cfg.Ignore = nil
	}
	return cfg, nil
}

// validateDollarTag accepts "$$" and "$name$" where name has no '$'.
func validateDollarTag(tag string) error {
	if len(tag) < 2 || tag[0] != '$' || tag[len(tag)-1] != '$' {
		return fmt.Errorf("invalid dollar tag %q: must look like $$ or $name$", tag)
	}
	for _, r := range tag[1 : len(tag)-1] {
		if r == '$' || r == ' ' || r == '\t' {
			return fmt.Errorf("invalid dollar tag %q: must look like $$ or $name$", tag)
		}
	}
	return nil
}
