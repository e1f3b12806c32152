package extract

import "strings"

const bannerRule = "-- ============================================"

// Section titles, in emission order.
const (
	TitleSchemas       = "SCHEMAS"
	TitleExtensions    = "EXTENSIONS"
	TitleTypes         = "TYPES (ENUMs)"
	TitleFunctions     = "FUNCTIONS"
	TitleTriggers      = "TRIGGERS"
	TitleViews         = "VIEWS"
	TitleSequences     = "SEQUENCES"
	TitlePolicies      = "POLICIES (RLS)"
	TitleGrants        = "GRANTS (Functions, Sequences, Types, Schemas)"
	TitleRoles         = "ROLES AND CONFIGURATION"
	TitleDataFunctions = "FUNCTIONS (from data.sql)"
	TitleDataTriggers  = "TRIGGERS (from data.sql)"
)

// sessionSettings is emitted at the top of every document regardless of input.
var sessionSettings = []string{
	"SET statement_timeout = 0;",
	"SET lock_timeout = 0;",
	"SET idle_in_transaction_session_timeout = 0;",
	"SET client_encoding = 'UTF8';",
	"SET standard_conforming_strings = on;",
	"SELECT pg_catalog.set_config('search_path', '', false);",
	"SET check_function_bodies = false;",
	"SET xmloption = content;",
	"SET client_min_messages = warning;",
	"SET row_security = off;",
}

// Section is one titled group of blocks. Trailer holds the companion
// statements (ownership, comments, ...) printed after the section's blocks.
// A section without a title is printed without a banner.
type Section struct {
	Title   string
	Slug    string
	Blocks  []Block
	Trailer []Block
}

// Lines returns the rendered lines of the section. Every block is followed by
// an empty line.
func (s Section) Lines() []string {
	var lines []string
	if s.Title != "" {
		lines = append(lines, banner(s.Title)...)
	}
	for _, b := range s.Blocks {
		lines = append(lines, b.SQL, "")
	}
	for _, b := range s.Trailer {
		lines = append(lines, b.SQL, "")
	}
	return lines
}

// String renders the section on its own.
func (s Section) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Document is the full extraction result.
type Document struct {
	Preamble []string
	Sections []Section
	Footer   []string
}

func newDocument() *Document {
	preamble := []string{
		bannerRule,
		"-- MIGRATION: database objects (tables excluded)",
		"-- Extracted automatically from the migration dumps",
		bannerRule,
		"",
	}
	preamble = append(preamble, sessionSettings...)
	preamble = append(preamble, "")

	return &Document{
		Preamble: preamble,
		Footer: []string{
			"",
			bannerRule,
			"-- END OF MIGRATION",
			bannerRule,
		},
	}
}

// add appends a section unless it has nothing to print.
func (d *Document) add(s Section) {
	if len(s.Blocks) == 0 && len(s.Trailer) == 0 {
		return
	}
	d.Sections = append(d.Sections, s)
}

// Section returns the first section with the given title.
func (d *Document) Section(title string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// Blocks returns every block of the document in emission order.
func (d *Document) Blocks() []Block {
	var blocks []Block
	for _, s := range d.Sections {
		blocks = append(blocks, s.Blocks...)
		blocks = append(blocks, s.Trailer...)
	}
	return blocks
}

// Lines returns the rendered document line by line.
func (d *Document) Lines() []string {
	lines := append([]string{}, d.Preamble...)
	for _, s := range d.Sections {
		lines = append(lines, s.Lines()...)
	}
	return append(lines, d.Footer...)
}

// String renders the document. The result carries no trailing newline.
func (d *Document) String() string {
	return strings.Join(d.Lines(), "\n")
}

func banner(title string) []string {
	return []string{bannerRule, "-- " + title, bannerRule, ""}
}
