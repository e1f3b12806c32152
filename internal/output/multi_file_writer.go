package output

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pgschema/pgextract/internal/extract"
	"github.com/pgschema/pgextract/internal/logger"
)

var (
	// partFileRe matches the section files this writer produces.
	partFileRe = regexp.MustCompile(`^\d{2}_[a-z0-9_]+\.sql$`)
	unsafeRe   = regexp.MustCompile(`[^a-z0-9_]+`)
)

// MultiFileWriter writes every section to its own file and a main file that
// pulls them back in with \i directives, in section order:
//
//	<dir>/<stem>.sql          preamble, \i lines, footer
//	<dir>/<stem>/01_schemas.sql
//	<dir>/<stem>/02_functions.sql
//	...
type MultiFileWriter struct {
	path string
}

// NewMultiFileWriter creates a writer whose main file is path.
func NewMultiFileWriter(path string) *MultiFileWriter {
	return &MultiFileWriter{path: path}
}

// PartsDir returns the directory holding the section files.
func (w *MultiFileWriter) PartsDir() string {
	return filepath.Join(filepath.Dir(w.path), w.stem())
}

func (w *MultiFileWriter) stem() string {
	base := filepath.Base(w.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Write replaces any section files left by a previous run and writes the new set.
func (w *MultiFileWriter) Write(doc *extract.Document) (*Result, error) {
	partsDir := w.PartsDir()
	if err := os.MkdirAll(partsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.removeStaleParts(partsDir); err != nil {
		return nil, err
	}

	mainLines := append([]string{}, doc.Preamble...)
	var parts []string
	for i, section := range doc.Sections {
		name := fmt.Sprintf("%02d_%s.sql", i+1, sanitizeFileName(section.Slug))
		full := filepath.Join(partsDir, name)
		if err := writeFile(full, strings.TrimRight(section.String(), "\n")+"\n"); err != nil {
			return nil, err
		}
		logger.Get().Debug("Wrote section file", "path", full, "blocks", len(section.Blocks))
		parts = append(parts, full)
		mainLines = append(mainLines, "\\i "+path.Join(w.stem(), name))
	}
	mainLines = append(mainLines, doc.Footer...)

	content := strings.Join(mainLines, "\n")
	if err := writeFile(w.path, content); err != nil {
		return nil, err
	}

	result := newResult(w.path, content)
	result.Files = append(result.Files, parts...)
	return result, nil
}

func (w *MultiFileWriter) removeStaleParts(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !partFileRe.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove stale section file: %w", err)
		}
	}
	return nil
}

// sanitizeFileName lowercases name and replaces anything outside [a-z0-9_].
func sanitizeFileName(name string) string {
	sanitized := unsafeRe.ReplaceAllString(strings.ToLower(name), "_")
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		return "section"
	}
	return sanitized
}
