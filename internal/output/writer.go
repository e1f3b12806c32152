// Package output writes extracted documents to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pgschema/pgextract/internal/extract"
)

// Result describes what a Writer produced.
type Result struct {
	// Path is the main output file.
	Path string
	// Files lists every file written, main file first.
	Files []string
	// Chars and Lines measure the main file content.
	Chars int
	Lines int
}

// Writer persists an extracted document.
type Writer interface {
	Write(doc *extract.Document) (*Result, error)
}

// New returns a MultiFileWriter when multiFile is set, a SingleFileWriter otherwise.
func New(path string, multiFile bool) Writer {
	if multiFile {
		return NewMultiFileWriter(path)
	}
	return NewSingleFileWriter(path)
}

// SingleFileWriter writes the whole document to one file.
type SingleFileWriter struct {
	path string
}

// NewSingleFileWriter creates a writer for path.
func NewSingleFileWriter(path string) *SingleFileWriter {
	return &SingleFileWriter{path: path}
}

// Write renders doc in memory and flushes it to disk in one write.
func (w *SingleFileWriter) Write(doc *extract.Document) (*Result, error) {
	content := doc.String()
	if err := writeFile(w.path, content); err != nil {
		return nil, err
	}
	return newResult(w.path, content), nil
}

func newResult(path, content string) *Result {
	return &Result{
		Path:  path,
		Files: []string{path},
		Chars: utf8.RuneCountInString(content),
		Lines: CountLines(content),
	}
}

// CountLines counts lines the way a text editor does: a trailing newline
// does not open an extra line.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
