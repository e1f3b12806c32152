package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pgschema/pgextract/internal/extract"
	"github.com/pgschema/pgextract/internal/include"
)

const sampleSchema = `CREATE SCHEMA IF NOT EXISTS "billing";

CREATE TYPE "public"."status" AS ENUM ('on', 'off');

CREATE TABLE "public"."t" (
    "id" integer
);

CREATE OR REPLACE FUNCTION "public"."touch"() RETURNS "trigger"
    LANGUAGE "plpgsql"
    AS $$
BEGIN
  RETURN NEW;
END;
$$;

CREATE POLICY "read_all" ON "public"."t" USING (true);
`

func sampleDocument() *extract.Document {
	return extract.Extract(extract.Sources{
		Schema:   sampleSchema,
		Roles:    "CREATE ROLE \"reader\";\n",
		HasRoles: true,
	}, extract.Options{})
}

func TestSingleFileWriter(t *testing.T) {
	doc := sampleDocument()
	path := filepath.Join(t.TempDir(), "nested", "out.sql")

	result, err := NewSingleFileWriter(path).Write(doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if diff := cmp.Diff(doc.String(), string(content)); diff != "" {
		t.Errorf("Written content mismatch (-want +got):\n%s", diff)
	}
	if result.Path != path || len(result.Files) != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if result.Chars != len([]rune(doc.String())) {
		t.Errorf("Expected %d characters, got %d", len([]rune(doc.String())), result.Chars)
	}
	if want := strings.Count(doc.String(), "\n") + 1; result.Lines != want {
		t.Errorf("Expected %d lines, got %d", want, result.Lines)
	}
}

func TestSingleFileWriter_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sql")
	if err := os.WriteFile(path, []byte(strings.Repeat("stale\n", 500)), 0644); err != nil {
		t.Fatal(err)
	}

	doc := sampleDocument()
	if _, err := NewSingleFileWriter(path).Write(doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != doc.String() {
		t.Error("Expected previous output to be fully replaced")
	}
}

func TestResultCountsCharactersNotBytes(t *testing.T) {
	doc := extract.Extract(extract.Sources{Schema: "CREATE POLICY \"lecture_élève\" ON t USING (true);"}, extract.Options{})
	result, err := NewSingleFileWriter(filepath.Join(t.TempDir(), "out.sql")).Write(doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if result.Chars != len(doc.String())-2 {
		t.Errorf("Expected %d characters, got %d", len(doc.String())-2, result.Chars)
	}
}

func TestMultiFileWriter(t *testing.T) {
	doc := sampleDocument()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "objects.sql")

	writer := NewMultiFileWriter(path)
	result, err := writer.Write(doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	wantParts := []string{"01_schemas.sql", "02_types.sql", "03_functions.sql", "04_policies.sql", "05_roles.sql"}
	var gotParts []string
	for _, f := range result.Files[1:] {
		gotParts = append(gotParts, filepath.Base(f))
	}
	if diff := cmp.Diff(wantParts, gotParts); diff != "" {
		t.Errorf("Section files mismatch (-want +got):\n%s", diff)
	}
	if writer.PartsDir() != filepath.Join(tmpDir, "objects") {
		t.Errorf("Unexpected parts dir %s", writer.PartsDir())
	}

	mainContent, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read main file: %v", err)
	}
	for _, part := range wantParts {
		if !strings.Contains(string(mainContent), "\\i objects/"+part+"\n") {
			t.Errorf("Main file should include %s", part)
		}
	}

	functions, err := os.ReadFile(filepath.Join(tmpDir, "objects", "03_functions.sql"))
	if err != nil {
		t.Fatalf("Failed to read section file: %v", err)
	}
	if !strings.HasPrefix(string(functions), "-- ============================================\n-- FUNCTIONS\n") {
		t.Errorf("Section file should start with its banner, got:\n%s", functions)
	}
	if !strings.HasSuffix(string(functions), "$$;\n") {
		t.Errorf("Section file should end with exactly one newline, got %q", functions)
	}
}

// Expanding the \i directives of the main file yields the same statements,
// in the same order, as the single-file output.
func TestMultiFileWriter_ReassemblesInOrder(t *testing.T) {
	doc := sampleDocument()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "objects.sql")

	if _, err := NewMultiFileWriter(path).Write(doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	assembled, err := include.NewProcessor(tmpDir).ProcessFile(path)
	if err != nil {
		t.Fatalf("Failed to resolve includes: %v", err)
	}

	if diff := cmp.Diff(nonBlankLines(doc.String()), nonBlankLines(assembled)); diff != "" {
		t.Errorf("Reassembled document mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiFileWriter_RemovesStaleParts(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "objects.sql")
	partsDir := filepath.Join(tmpDir, "objects")
	if err := os.MkdirAll(partsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"09_grants.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(partsDir, name), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := NewMultiFileWriter(path).Write(sampleDocument()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(partsDir, "09_grants.sql")); !os.IsNotExist(err) {
		t.Error("Expected stale section file to be removed")
	}
	if _, err := os.Stat(filepath.Join(partsDir, "README.md")); err != nil {
		t.Error("Expected unrelated files to be left alone")
	}
}

func TestMultiFileWriter_HeadlessSection(t *testing.T) {
	doc := extract.Extract(extract.Sources{Schema: "ALTER POLICY p ON t RENAME TO q;"}, extract.Options{})
	tmpDir := t.TempDir()

	result, err := NewMultiFileWriter(filepath.Join(tmpDir, "out.sql")).Write(doc)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(result.Files) != 2 || filepath.Base(result.Files[1]) != "01_alter_policies.sql" {
		t.Errorf("Unexpected files: %v", result.Files)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("out.sql", false).(*SingleFileWriter); !ok {
		t.Error("Expected SingleFileWriter")
	}
	if _, ok := New("out.sql", true).(*MultiFileWriter); !ok {
		t.Error("Expected MultiFileWriter")
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\n\n", 2},
	}
	for _, tt := range tests {
		if got := CountLines(tt.input); got != tt.expected {
			t.Errorf("CountLines(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"functions", "functions"},
		{"data_functions", "data_functions"},
		{"name.with.dots", "name_with_dots"},
		{"name with spaces", "name_with_spaces"},
		{"_leading_underscore_", "leading_underscore"},
		{"MixedCase", "mixedcase"},
		{"Funções", "fun_es"},
		{"", "section"},
	}

	for _, test := range tests {
		result := sanitizeFileName(test.input)
		if result != test.expected {
			t.Errorf("sanitizeFileName(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func nonBlankLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
