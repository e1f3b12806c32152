package extract

import (
	"regexp"
	"strings"
)

// Single-line statements. A span never crosses ';' or a newline, so a
// statement broken over several lines is not picked up.
var (
	extensionStmt       = regexp.MustCompile(`(?i)CREATE EXTENSION IF NOT EXISTS[^;\n]+;`)
	alterSchemaStmt     = regexp.MustCompile(`(?i)ALTER SCHEMA[^;\n]+;`)
	alterTypeOwnerStmt  = regexp.MustCompile(`(?i)ALTER TYPE[^;\n]+OWNER TO[^;\n]+;`)
	alterFuncOwnerStmt  = regexp.MustCompile(`(?i)ALTER FUNCTION[^;\n]+OWNER TO[^;\n]+;`)
	commentFunctionStmt = regexp.MustCompile(`(?i)COMMENT ON FUNCTION[^;\n]+;`)
	disableTriggerStmt  = regexp.MustCompile(`(?i)ALTER TABLE[^;\n]+DISABLE TRIGGER[^;\n]+;`)
	commentTriggerStmt  = regexp.MustCompile(`(?i)COMMENT ON TRIGGER[^;\n]+;`)
	alterPolicyStmt     = regexp.MustCompile(`(?i)ALTER POLICY[^;\n]+;`)

	// Table grants are excluded by construction.
	grantStmt = regexp.MustCompile(`(?i)GRANT[^;\n]+ON (FUNCTION|SEQUENCE|TYPE|SCHEMA)[^;\n]+;`)
)

// findAll returns every non-overlapping match of re in content, in source order.
func findAll(content string, kind Kind, re *regexp.Regexp) []Block {
	locs := re.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	blocks := make([]Block, 0, len(locs))
	line, last := 1, 0
	for _, loc := range locs {
		line += strings.Count(content[last:loc[0]], "\n")
		last = loc[0]
		sql := content[loc[0]:loc[1]]
		blocks = append(blocks, Block{
			Kind:       kind,
			Name:       objectName(kind, sql),
			SQL:        sql,
			StartLine:  line,
			EndLine:    line,
			Terminated: true,
		})
	}
	return blocks
}
