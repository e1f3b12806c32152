package extract

import (
	"regexp"
	"strings"
)

// Kind identifies the statement category a block was extracted as.
type Kind string

const (
	KindSchema    Kind = "schema"
	KindExtension Kind = "extension"
	KindType      Kind = "type"
	KindFunction  Kind = "function"
	KindTrigger   Kind = "trigger"
	KindView      Kind = "view"
	KindSequence  Kind = "sequence"
	KindPolicy    Kind = "policy"
	KindGrant     Kind = "grant"
	KindRoles     Kind = "roles"

	KindAlterSchema     Kind = "alter_schema"
	KindAlterType       Kind = "alter_type"
	KindAlterFunction   Kind = "alter_function"
	KindCommentFunction Kind = "comment_function"
	KindDisableTrigger  Kind = "disable_trigger"
	KindCommentTrigger  Kind = "comment_trigger"
	KindAlterPolicy     Kind = "alter_policy"
)

// Block is a contiguous span of source text recognised as one statement.
type Block struct {
	Kind Kind
	// Name is the unqualified object name taken from the statement header, if any.
	Name string
	// SQL is the verbatim source text of the statement.
	SQL string
	// StartLine and EndLine are 1-based and inclusive.
	StartLine int
	EndLine   int
	// Terminated is false when the scan hit end of input before the
	// statement's closing pattern.
	Terminated bool
}

func newBlock(kind Kind, lines []string, start, end int, terminated bool) Block {
	return Block{
		Kind:       kind,
		Name:       objectName(kind, lines[start]),
		SQL:        strings.Join(lines[start:end+1], "\n"),
		StartLine:  start + 1,
		EndLine:    end + 1,
		Terminated: terminated,
	}
}

const (
	identPattern     = `(?:"[^"]+"|[^\s".;(]+)`
	qualifiedPattern = `(` + identPattern + `(?:\.` + identPattern + `)*)`
)

var (
	identRe = regexp.MustCompile(identPattern)

	namePatterns = map[Kind]*regexp.Regexp{
		KindSchema:    regexp.MustCompile(`(?i)CREATE SCHEMA IF NOT EXISTS\s+` + qualifiedPattern),
		KindExtension: regexp.MustCompile(`(?i)CREATE EXTENSION IF NOT EXISTS\s+` + qualifiedPattern),
		KindType:      regexp.MustCompile(`(?i)CREATE TYPE\s+` + qualifiedPattern),
		KindFunction:  regexp.MustCompile(`(?i)CREATE OR REPLACE FUNCTION\s+` + qualifiedPattern),
		KindTrigger:   regexp.MustCompile(`(?i)CREATE OR REPLACE TRIGGER\s+` + qualifiedPattern),
		KindView:      regexp.MustCompile(`(?i)VIEW\s+(?:IF NOT EXISTS\s+)?` + qualifiedPattern),
		KindSequence:  regexp.MustCompile(`(?i)SEQUENCE\s+(?:IF NOT EXISTS\s+)?` + qualifiedPattern),
		KindPolicy:    regexp.MustCompile(`(?i)CREATE POLICY\s+` + qualifiedPattern),

		KindAlterSchema:     regexp.MustCompile(`(?i)ALTER SCHEMA\s+` + qualifiedPattern),
		KindAlterType:       regexp.MustCompile(`(?i)ALTER TYPE\s+` + qualifiedPattern),
		KindAlterFunction:   regexp.MustCompile(`(?i)ALTER FUNCTION\s+` + qualifiedPattern),
		KindCommentFunction: regexp.MustCompile(`(?i)COMMENT ON FUNCTION\s+` + qualifiedPattern),
		KindDisableTrigger:  regexp.MustCompile(`(?i)DISABLE TRIGGER\s+` + qualifiedPattern),
		KindCommentTrigger:  regexp.MustCompile(`(?i)COMMENT ON TRIGGER\s+` + qualifiedPattern),
		KindAlterPolicy:     regexp.MustCompile(`(?i)ALTER POLICY\s+` + qualifiedPattern),
		KindGrant:           grantTargetRe,
	}

	// The object kind is the first group, so the name lands in the last one.
	grantTargetRe = regexp.MustCompile(`(?i)ON (FUNCTION|SEQUENCE|TYPE|SCHEMA)\s+` + qualifiedPattern)
)

// objectName returns the unqualified, unquoted name declared on a header
// line, or "" when the header does not carry one.
func objectName(kind Kind, header string) string {
	re, ok := namePatterns[kind]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	parts := identRe.FindAllString(m[len(m)-1], -1)
	if len(parts) == 0 {
		return ""
	}
	return strings.Trim(parts[len(parts)-1], `"`)
}
