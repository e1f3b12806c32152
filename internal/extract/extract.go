// Package extract pulls every schema-level object except tables out of
// PostgreSQL dump files.
//
// Extraction is lexical: each statement kind is found by an independent
// line scan that looks for an opening keyword sequence and applies a
// kind-specific termination rule. Statement text is never rewritten, only
// selected and regrouped. A statement whose terminator never shows up runs
// to end of input and is still emitted.
package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgschema/pgextract/internal/config"
	"github.com/pgschema/pgextract/internal/include"
	"github.com/pgschema/pgextract/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Default input and output file names inside a migrations directory.
const (
	SchemaFileName = "schema.sql"
	DataFileName   = "data.sql"
	RolesFileName  = "roles.sql"
	OutputFileName = "functions_triggers_policies.sql"
)

// MissingInputError is returned when the required schema dump is absent.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s not found", e.Path)
}

// Sources holds the text of the dumps. Data and Roles are only used when
// the matching Has flag is set, so an existing empty file still counts.
type Sources struct {
	Schema   string
	Data     string
	HasData  bool
	Roles    string
	HasRoles bool
}

// Options tunes extraction. The zero value reproduces the default behaviour.
type Options struct {
	// DollarTags closing function bodies; defaults to DefaultDollarTags.
	DollarTags []string
	// Ignore drops blocks whose object name matches. Nil keeps everything.
	Ignore *config.IgnoreConfig
	// Progress receives human readable progress lines when set.
	Progress io.Writer
}

// OptionsFromConfig builds Options from a loaded configuration, which may be nil.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{DollarTags: cfg.DollarTags, Ignore: cfg.Ignore}
}

func (o Options) progress(format string, args ...any) {
	if o.Progress != nil {
		fmt.Fprintf(o.Progress, format+"\n", args...)
	}
}

// Inputs names the dump files to read.
type Inputs struct {
	Schema string
	Data   string
	Roles  string
	// ResolveIncludes expands psql \i directives before scanning.
	ResolveIncludes bool
}

// InputsFromDir returns the conventional dump paths inside dir.
func InputsFromDir(dir string) Inputs {
	return Inputs{
		Schema: filepath.Join(dir, SchemaFileName),
		Data:   filepath.Join(dir, DataFileName),
		Roles:  filepath.Join(dir, RolesFileName),
	}
}

// Validate checks that the schema dump exists.
func (in Inputs) Validate() error {
	if _, err := os.Stat(in.Schema); err != nil {
		if os.IsNotExist(err) {
			return &MissingInputError{Path: in.Schema}
		}
		return fmt.Errorf("failed to access %s: %w", in.Schema, err)
	}
	return nil
}

// ExtractFiles reads the dumps named by in and extracts them. Optional dumps
// that do not exist are skipped.
func ExtractFiles(in Inputs, opts Options) (*Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	opts.progress("Processing %s...", in.Schema)

	// The dumps are independent; load them in parallel. Scanning below stays
	// sequential so the output order never depends on scheduling.
	var src Sources
	var eg errgroup.Group
	eg.Go(func() error {
		content, err := readInput(in.Schema, in.ResolveIncludes)
		src.Schema = content
		return err
	})
	if in.Roles != "" && exists(in.Roles) {
		src.HasRoles = true
		eg.Go(func() error {
			content, err := readInput(in.Roles, false)
			src.Roles = content
			return err
		})
	}
	if in.Data != "" && exists(in.Data) {
		src.HasData = true
		eg.Go(func() error {
			content, err := readInput(in.Data, in.ResolveIncludes)
			src.Data = content
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return extract(src, opts, in), nil
}

// Extract builds the document from already loaded dump text.
func Extract(src Sources, opts Options) *Document {
	return extract(src, opts, Inputs{Schema: SchemaFileName, Data: DataFileName, Roles: RolesFileName})
}

func extract(src Sources, opts Options, in Inputs) *Document {
	log := logger.Get()
	doc := newDocument()

	content := src.Schema
	lines := splitLines(content)
	log.Debug("Scanning schema dump", "path", in.Schema, "lines", len(lines))

	schemas := opts.keep(config.Schemas, scanSchemas(lines))
	var alterSchemas []Block
	if len(schemas) > 0 {
		alterSchemas = opts.keep(config.Schemas, findAll(content, KindAlterSchema, alterSchemaStmt))
	}
	doc.add(Section{Title: TitleSchemas, Slug: "schemas", Blocks: schemas, Trailer: alterSchemas})

	doc.add(Section{
		Title:  TitleExtensions,
		Slug:   "extensions",
		Blocks: opts.keep(config.Extensions, findAll(content, KindExtension, extensionStmt)),
	})

	types := opts.keep(config.Types, scanTypes(lines))
	var alterTypes []Block
	if len(types) > 0 {
		alterTypes = opts.keep(config.Types, findAll(content, KindAlterType, alterTypeOwnerStmt))
	}
	doc.add(Section{Title: TitleTypes, Slug: "types", Blocks: types, Trailer: alterTypes})

	opts.progress("  Extracting functions...")
	functions := opts.keep(config.Functions, scanFunctions(lines, opts.DollarTags))
	var functionTrailer []Block
	if len(functions) > 0 {
		functionTrailer = append(functionTrailer, findAll(content, KindAlterFunction, alterFuncOwnerStmt)...)
		functionTrailer = append(functionTrailer, findAll(content, KindCommentFunction, commentFunctionStmt)...)
		functionTrailer = opts.keep(config.Functions, functionTrailer)
	}
	doc.add(Section{Title: TitleFunctions, Slug: "functions", Blocks: functions, Trailer: functionTrailer})

	opts.progress("  Extracting triggers...")
	triggers := opts.keep(config.Triggers, scanTriggers(lines))
	var triggerTrailer []Block
	if len(triggers) > 0 {
		triggerTrailer = append(triggerTrailer, findAll(content, KindDisableTrigger, disableTriggerStmt)...)
		triggerTrailer = append(triggerTrailer, findAll(content, KindCommentTrigger, commentTriggerStmt)...)
		triggerTrailer = opts.keep(config.Triggers, triggerTrailer)
	}
	doc.add(Section{Title: TitleTriggers, Slug: "triggers", Blocks: triggers, Trailer: triggerTrailer})

	doc.add(Section{Title: TitleViews, Slug: "views", Blocks: opts.keep(config.Views, scanViews(lines))})
	doc.add(Section{Title: TitleSequences, Slug: "sequences", Blocks: opts.keep(config.Sequences, scanSequences(lines))})

	opts.progress("  Extracting policies...")
	policies := opts.keep(config.Policies, scanPolicies(lines))
	alterPolicies := opts.keep(config.Policies, findAll(content, KindAlterPolicy, alterPolicyStmt))
	if len(policies) > 0 {
		doc.add(Section{Title: TitlePolicies, Slug: "policies", Blocks: policies, Trailer: alterPolicies})
	} else {
		// ALTER POLICY statements are kept even without a CREATE POLICY to
		// attach them to; they print without a banner.
		doc.add(Section{Slug: "alter_policies", Blocks: alterPolicies})
	}

	opts.progress("  Extracting grants...")
	doc.add(Section{Title: TitleGrants, Slug: "grants", Blocks: opts.keepGrants(findAll(content, KindGrant, grantStmt))})

	if src.HasRoles {
		opts.progress("Processing %s...", in.Roles)
		doc.add(Section{
			Title:  TitleRoles,
			Slug:   "roles",
			Blocks: []Block{{Kind: KindRoles, SQL: src.Roles, Terminated: true}},
		})
	}

	if src.HasData {
		opts.progress("Processing %s...", in.Data)
		dataLines := splitLines(src.Data)
		log.Debug("Scanning data dump", "path", in.Data, "lines", len(dataLines))
		doc.add(Section{
			Title:  TitleDataFunctions,
			Slug:   "data_functions",
			Blocks: opts.keep(config.Functions, scanFunctions(dataLines, opts.DollarTags)),
		})
		doc.add(Section{
			Title:  TitleDataTriggers,
			Slug:   "data_triggers",
			Blocks: opts.keep(config.Triggers, scanTriggers(dataLines)),
		})
	}

	if logger.IsDebug() {
		for _, s := range doc.Sections {
			for _, b := range s.Blocks {
				if !b.Terminated {
					log.Debug("Statement not terminated, consumed to end of input",
						"kind", b.Kind, "name", b.Name, "start_line", b.StartLine)
				}
			}
			log.Debug("Section extracted", "slug", s.Slug, "blocks", len(s.Blocks), "trailer", len(s.Trailer))
		}
	}

	return doc
}

// keep filters out blocks matched by the ignore patterns of category.
// Companion statements carry their parent's name, so they go with it.
func (o Options) keep(category config.Category, blocks []Block) []Block {
	if o.Ignore == nil {
		return blocks
	}
	kept := blocks[:0:0]
	for _, b := range blocks {
		if o.Ignore.ShouldIgnore(category, b.Name) {
			logger.Get().Debug("Ignoring object", "category", category, "name", b.Name)
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

var grantCategories = map[string]config.Category{
	"FUNCTION": config.Functions,
	"SEQUENCE": config.Sequences,
	"TYPE":     config.Types,
	"SCHEMA":   config.Schemas,
}

// keepGrants drops grants on objects that are themselves ignored.
func (o Options) keepGrants(blocks []Block) []Block {
	if o.Ignore == nil {
		return blocks
	}
	kept := blocks[:0:0]
	for _, b := range blocks {
		if m := grantTargetRe.FindStringSubmatch(b.SQL); m != nil {
			category := grantCategories[strings.ToUpper(m[1])]
			if o.Ignore.ShouldIgnore(category, b.Name) {
				logger.Get().Debug("Ignoring grant", "category", category, "name", b.Name)
				continue
			}
		}
		kept = append(kept, b)
	}
	return kept
}

func readInput(path string, resolveIncludes bool) (string, error) {
	if resolveIncludes {
		content, err := include.NewProcessor(filepath.Dir(path)).ProcessFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve includes in %s: %w", path, err)
		}
		return content, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
