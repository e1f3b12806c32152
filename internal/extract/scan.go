package extract

import (
	"regexp"
	"strings"
)

// Openers are matched anywhere in a line, case-insensitively.
var (
	schemaOpener   = regexp.MustCompile(`(?i)CREATE SCHEMA IF NOT EXISTS`)
	typeOpener     = regexp.MustCompile(`(?i)CREATE TYPE`)
	functionOpener = regexp.MustCompile(`(?i)CREATE OR REPLACE FUNCTION`)
	triggerOpener  = regexp.MustCompile(`(?i)CREATE OR REPLACE TRIGGER`)
	policyOpener   = regexp.MustCompile(`(?i)CREATE POLICY`)
	viewOpener     = regexp.MustCompile(`(?i)CREATE (OR REPLACE )?(VIEW|MATERIALIZED VIEW)`)
	sequenceOpener = regexp.MustCompile(`(?i)CREATE (SEQUENCE|TEMPORARY SEQUENCE)`)
)

// DefaultDollarTags holds the only function body terminator recognised
// unless configured otherwise.
var DefaultDollarTags = []string{"$$"}

func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// scanUntilSemicolon collects statements that open on a line matching
// opener and end on the first line, the header included, containing ';'.
func scanUntilSemicolon(lines []string, kind Kind, opener *regexp.Regexp) []Block {
	var blocks []Block
	i := 0
	for i < len(lines) {
		if !opener.MatchString(lines[i]) {
			i++
			continue
		}
		j := i
		for j < len(lines) && !strings.Contains(lines[j], ";") {
			j++
		}
		end, terminated := j, true
		if j == len(lines) {
			end, terminated = len(lines)-1, false
		}
		blocks = append(blocks, newBlock(kind, lines, i, end, terminated))
		i = end + 1
	}
	return blocks
}

func scanSchemas(lines []string) []Block {
	return scanUntilSemicolon(lines, KindSchema, schemaOpener)
}

func scanViews(lines []string) []Block {
	return scanUntilSemicolon(lines, KindView, viewOpener)
}

func scanSequences(lines []string) []Block {
	return scanUntilSemicolon(lines, KindSequence, sequenceOpener)
}

// scanTypes collects CREATE TYPE statements. Parenthesis depth is tracked
// from the first line holding a '('; the statement closes on a line that
// brings the depth back to zero and contains ';'. A type without any
// parenthesis therefore runs to end of input.
func scanTypes(lines []string) []Block {
	var blocks []Block
	i := 0
	for i < len(lines) {
		if !typeOpener.MatchString(lines[i]) {
			i++
			continue
		}
		depth := 0
		seenParen := false
		j := i
		for ; j < len(lines); j++ {
			line := lines[j]
			if strings.Contains(line, "(") {
				seenParen = true
			}
			if seenParen {
				depth += strings.Count(line, "(") - strings.Count(line, ")")
				if depth == 0 && strings.Contains(line, ";") {
					break
				}
			}
		}
		end, terminated := j, true
		if j == len(lines) {
			end, terminated = len(lines)-1, false
		}
		blocks = append(blocks, newBlock(KindType, lines, i, end, terminated))
		i = end + 1
	}
	return blocks
}

// scanFunctions collects CREATE OR REPLACE FUNCTION statements. A body
// closes only on a later line starting with one of tags followed by ';'
// (with the default tags, exactly "$$;"). Bodies quoted with any other tag
// run to end of input.
func scanFunctions(lines []string, tags []string) []Block {
	if len(tags) == 0 {
		tags = DefaultDollarTags
	}
	closers := make([]string, len(tags))
	for i, tag := range tags {
		closers[i] = tag + ";"
	}
	closes := func(line string) bool {
		for _, c := range closers {
			if strings.HasPrefix(line, c) {
				return true
			}
		}
		return false
	}

	var blocks []Block
	i := 0
	for i < len(lines) {
		if !functionOpener.MatchString(lines[i]) {
			i++
			continue
		}
		end, terminated := len(lines)-1, false
		for k := i + 1; k < len(lines); k++ {
			if closes(lines[k]) {
				end, terminated = k, true
				break
			}
		}
		blocks = append(blocks, newBlock(KindFunction, lines, i, end, terminated))
		i = end + 1
	}
	return blocks
}

func scanTriggers(lines []string) []Block {
	return scanUntilSemicolon(lines, KindTrigger, triggerOpener)
}

func scanPolicies(lines []string) []Block {
	return scanUntilSemicolon(lines, KindPolicy, policyOpener)
}
