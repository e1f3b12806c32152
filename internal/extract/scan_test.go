package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		header   string
		expected string
	}{
		{"quoted qualified function", KindFunction, `CREATE OR REPLACE FUNCTION "public"."set_updated_at"() RETURNS "trigger"`, "set_updated_at"},
		{"bare function", KindFunction, `create or replace function touch(ts timestamptz) returns void`, "touch"},
		{"schema", KindSchema, `CREATE SCHEMA IF NOT EXISTS "billing";`, "billing"},
		{"enum type", KindType, `CREATE TYPE public.status AS ENUM (`, "status"},
		{"view", KindView, `CREATE OR REPLACE VIEW "public"."active_contracts" AS`, "active_contracts"},
		{"materialized view", KindView, `CREATE MATERIALIZED VIEW mv_totals AS`, "mv_totals"},
		{"sequence if not exists", KindSequence, `CREATE SEQUENCE IF NOT EXISTS "public"."contract_services_id_seq"`, "contract_services_id_seq"},
		{"policy with spaces", KindPolicy, `CREATE POLICY "Tenant members can read" ON "public"."contracts"`, "Tenant members can read"},
		{"trigger", KindTrigger, `CREATE OR REPLACE TRIGGER "trg_touch" BEFORE UPDATE ON t`, "trg_touch"},
		{"extension", KindExtension, `CREATE EXTENSION IF NOT EXISTS "pgcrypto" WITH SCHEMA "extensions";`, "pgcrypto"},
		{"grant on function", KindGrant, `GRANT ALL ON FUNCTION "public"."f"() TO anon;`, "f"},
		{"grant on schema", KindGrant, `GRANT USAGE ON SCHEMA app TO anon;`, "app"},
		{"alter function owner", KindAlterFunction, `ALTER FUNCTION public.tmp_a() OWNER TO postgres;`, "tmp_a"},
		{"comment on function", KindCommentFunction, `COMMENT ON FUNCTION "public"."tmp_a"() IS 'x';`, "tmp_a"},
		{"disable trigger", KindDisableTrigger, `ALTER TABLE ONLY "public"."t" DISABLE TRIGGER "trg_touch";`, "trg_touch"},
		{"comment on trigger", KindCommentTrigger, `COMMENT ON TRIGGER trg_touch ON t IS 'y';`, "trg_touch"},
		{"alter policy", KindAlterPolicy, `ALTER POLICY "debug only" ON t RENAME TO q;`, "debug only"},
		{"alter type owner", KindAlterType, `ALTER TYPE "public"."status" OWNER TO postgres;`, "status"},
		{"header without name", KindFunction, `    LANGUAGE sql`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectName(tt.kind, tt.header); got != tt.expected {
				t.Errorf("objectName(%s, %q) = %q, want %q", tt.kind, tt.header, got, tt.expected)
			}
		})
	}
}

func TestScanTypes(t *testing.T) {
	tests := []struct {
		name       string
		input      []string
		wantSQL    []string
		terminated bool
	}{
		{
			name:       "multi-line enum",
			input:      []string{"CREATE TYPE e AS ENUM (", "    'a',", "    'b'", ");", "SELECT 1;"},
			wantSQL:    []string{"CREATE TYPE e AS ENUM (\n    'a',\n    'b'\n);"},
			terminated: true,
		},
		{
			name:       "nested parentheses",
			input:      []string{"CREATE TYPE money_pair AS (", "    amount numeric(12,2),", "    currency text", ");"},
			wantSQL:    []string{"CREATE TYPE money_pair AS (\n    amount numeric(12,2),\n    currency text\n);"},
			terminated: true,
		},
		{
			name:       "semicolon inside label",
			input:      []string{"CREATE TYPE e AS ENUM (", "    'a;b',", "    'c'", ");"},
			wantSQL:    []string{"CREATE TYPE e AS ENUM (\n    'a;b',\n    'c'\n);"},
			terminated: true,
		},
		{
			name:       "no parenthesis runs to end of input",
			input:      []string{"CREATE TYPE shell;", "CREATE VIEW v AS SELECT 1;", ""},
			wantSQL:    []string{"CREATE TYPE shell;\nCREATE VIEW v AS SELECT 1;\n"},
			terminated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := scanTypes(tt.input)
			if diff := cmp.Diff(tt.wantSQL, blockSQL(blocks)); diff != "" {
				t.Fatalf("scanTypes mismatch (-want +got):\n%s", diff)
			}
			if blocks[0].Terminated != tt.terminated {
				t.Errorf("Terminated = %v, want %v", blocks[0].Terminated, tt.terminated)
			}
		})
	}
}

func TestScanUntilSemicolon_Unterminated(t *testing.T) {
	blocks := scanViews([]string{"CREATE VIEW v AS", "SELECT 1"})
	if len(blocks) != 1 {
		t.Fatalf("Expected one block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.SQL != "CREATE VIEW v AS\nSELECT 1" || b.Terminated || b.StartLine != 1 || b.EndLine != 2 {
		t.Errorf("Unexpected block: %+v", b)
	}
}

func TestScanUntilSemicolon_CaseInsensitiveOpeners(t *testing.T) {
	lines := []string{
		"create or replace view v as select 1;",
		"Create Sequence s;",
		"create temporary sequence t;",
		"create schema if not exists app;",
	}
	if got := len(scanViews(lines)); got != 1 {
		t.Errorf("Expected 1 view, got %d", got)
	}
	if got := len(scanSequences(lines)); got != 2 {
		t.Errorf("Expected 2 sequences, got %d", got)
	}
	if got := len(scanSchemas(lines)); got != 1 {
		t.Errorf("Expected 1 schema, got %d", got)
	}
}

func TestScanFunctions(t *testing.T) {
	t.Run("closer must start the line", func(t *testing.T) {
		lines := []string{
			"CREATE OR REPLACE FUNCTION f() RETURNS int AS $$",
			"  $$;",
			"$$;",
		}
		blocks := scanFunctions(lines, nil)
		if len(blocks) != 1 || blocks[0].EndLine != 3 {
			t.Errorf("Expected block to close on line 3, got %+v", blocks)
		}
	})

	t.Run("closer is searched after the header", func(t *testing.T) {
		lines := []string{
			"CREATE OR REPLACE FUNCTION f() RETURNS int AS $$ SELECT 1 $$;",
			"CREATE OR REPLACE FUNCTION g() RETURNS int AS $$",
			"$$;",
			"CREATE OR REPLACE FUNCTION h() RETURNS int AS $$",
			"$$;",
		}
		blocks := scanFunctions(lines, nil)
		want := []string{
			strings.Join(lines[0:3], "\n"),
			strings.Join(lines[3:5], "\n"),
		}
		if diff := cmp.Diff(want, blockSQL(blocks)); diff != "" {
			t.Errorf("scanFunctions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("closer followed by more text", func(t *testing.T) {
		lines := []string{"CREATE OR REPLACE FUNCTION f() RETURNS int AS $$", "$$; -- done"}
		blocks := scanFunctions(lines, nil)
		if len(blocks) != 1 || !blocks[0].Terminated {
			t.Errorf("Expected terminated block, got %+v", blocks)
		}
	})
}

func TestFindAll_LineNumbers(t *testing.T) {
	content := "SELECT 1;\nALTER POLICY p ON t RENAME TO q;\n\nALTER POLICY x ON y RENAME TO z;"
	blocks := findAll(content, KindAlterPolicy, alterPolicyStmt)

	var got [][2]int
	for _, b := range blocks {
		got = append(got, [2]int{b.StartLine, b.EndLine})
	}
	if diff := cmp.Diff([][2]int{{2, 2}, {4, 4}}, got); diff != "" {
		t.Errorf("Line numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestGrantStatement(t *testing.T) {
	tests := []struct {
		line     string
		captured bool
	}{
		{`GRANT ALL ON FUNCTION "public"."f"() TO "anon";`, true},
		{`GRANT USAGE ON SCHEMA "billing" TO "authenticated";`, true},
		{`GRANT ALL ON SEQUENCE "public"."s" TO "service_role";`, true},
		{`GRANT USAGE ON TYPE "public"."status" TO "anon";`, true},
		{`grant execute on function f() to anon;`, true},
		{`GRANT ALL ON TABLE "public"."contracts" TO "anon";`, false},
		{`GRANT SELECT ON ALL TABLES IN SCHEMA public TO anon;`, false},
		{`REVOKE ALL ON FUNCTION f() FROM PUBLIC;`, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := grantStmt.MatchString(tt.line); got != tt.captured {
				t.Errorf("grant capture of %q = %v, want %v", tt.line, got, tt.captured)
			}
		})
	}
}

func TestSectionLines(t *testing.T) {
	s := Section{
		Title:   "VIEWS",
		Blocks:  []Block{{SQL: "CREATE VIEW a AS SELECT 1;"}},
		Trailer: []Block{{SQL: "COMMENT ON VIEW a IS 'x';"}},
	}
	want := []string{
		bannerRule, "-- VIEWS", bannerRule, "",
		"CREATE VIEW a AS SELECT 1;", "",
		"COMMENT ON VIEW a IS 'x';", "",
	}
	if diff := cmp.Diff(want, s.Lines()); diff != "" {
		t.Errorf("Section lines mismatch (-want +got):\n%s", diff)
	}

	untitled := Section{Blocks: []Block{{SQL: "ALTER POLICY p ON t RENAME TO q;"}}}
	if diff := cmp.Diff([]string{"ALTER POLICY p ON t RENAME TO q;", ""}, untitled.Lines()); diff != "" {
		t.Errorf("Untitled section lines mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentPreamble(t *testing.T) {
	doc := newDocument()
	settings := 0
	for _, line := range doc.Preamble {
		if strings.HasPrefix(line, "SET ") || strings.HasPrefix(line, "SELECT ") {
			settings++
		}
	}
	if settings != len(sessionSettings) {
		t.Errorf("Expected %d session settings in preamble, got %d", len(sessionSettings), settings)
	}
	if doc.Footer[len(doc.Footer)-2] != "-- END OF MIGRATION" {
		t.Errorf("Unexpected footer: %q", doc.Footer)
	}
}
