// Package include expands psql \i directives in SQL files.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pgschema/pgextract/internal/logger"
)

// Matches "\i path" or "\i path;" on a line of its own.
var directiveRe = regexp.MustCompile(`^\s*\\i\s+([^\s;]+)\s*;?\s*$`)

// Processor resolves \i directives. Included paths are relative to the
// including file and must stay inside the base directory.
type Processor struct {
	baseDir string
	visited map[string]bool
}

// NewProcessor creates a processor rooted at baseDir. ProcessFile re-roots
// it at the directory of the file it is given.
func NewProcessor(baseDir string) *Processor {
	return &Processor{
		baseDir: baseDir,
		visited: make(map[string]bool),
	}
}

// HasDirectives reports whether content contains at least one \i line.
func HasDirectives(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if directiveRe.MatchString(line) {
			return true
		}
	}
	return false
}

// ProcessFile returns the content of filename with every \i directive
// replaced, recursively, by the content of the referenced file.
func (p *Processor) ProcessFile(filename string) (string, error) {
	p.visited = make(map[string]bool)

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", filename, err)
	}
	p.baseDir = filepath.Dir(absPath)

	return p.processFile(absPath)
}

func (p *Processor) processFile(filename string) (string, error) {
	if p.visited[filename] {
		return "", fmt.Errorf("circular include detected: %s", filename)
	}
	p.visited[filename] = true
	// The same file may still be included from a sibling branch.
	defer delete(p.visited, filename)

	content, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	expanded, err := p.expand(string(content), filepath.Dir(filename))
	if err != nil {
		return "", fmt.Errorf("failed to process includes in %s: %w", filename, err)
	}
	return expanded, nil
}

func (p *Processor) expand(content string, currentDir string) (string, error) {
	lines := strings.Split(content, "\n")
	var out strings.Builder

	for i, line := range lines {
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteString("\n")
			}
			continue
		}

		resolved, err := p.resolve(m[1], currentDir)
		if err != nil {
			return "", fmt.Errorf("line %d: failed to resolve include path %s: %w", i+1, m[1], err)
		}
		logger.Get().Debug("Including file", "path", resolved, "line", i+1)

		included, err := p.processFile(resolved)
		if err != nil {
			return "", fmt.Errorf("line %d: failed to process included file %s: %w", i+1, resolved, err)
		}
		out.WriteString(included)
		if !strings.HasSuffix(included, "\n") {
			out.WriteString("\n")
		}
	}

	return out.String(), nil
}

// resolve maps an include path to an absolute path inside the base directory.
func (p *Processor) resolve(includePath string, currentDir string) (string, error) {
	cleanPath := filepath.Clean(filepath.FromSlash(includePath))
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("directory traversal not allowed: %s", includePath)
	}

	absPath, err := filepath.Abs(filepath.Join(currentDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	baseAbs, err := filepath.Abs(p.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute base path: %w", err)
	}

	rel, err := filepath.Rel(baseAbs, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("include path %s is outside the base directory %s", includePath, p.baseDir)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("included file does not exist: %s", absPath)
	}
	return absPath, nil
}
