package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgschema/pgextract/internal/color"
	"github.com/pgschema/pgextract/internal/config"
	"github.com/pgschema/pgextract/internal/extract"
	"github.com/pgschema/pgextract/internal/logger"
	"github.com/pgschema/pgextract/internal/output"
	"github.com/spf13/cobra"
)

// DefaultDir is the migrations directory used when --dir is not given.
const DefaultDir = "supabase/migrations"

var (
	dir             string
	outputPath      string
	configPath      string
	multiFile       bool
	resolveIncludes bool
	noColor         bool
)

var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every non-table object from migration dumps",
	Long: `Extract schemas, extensions, types, functions, triggers, views, sequences,
policies and non-table grants from <dir>/schema.sql, copy <dir>/roles.sql verbatim
and pick functions and triggers out of <dir>/data.sql. The result is written to
<dir>/functions_triggers_policies.sql unless --output is given.

Extraction is line based and never rewrites statement text.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	ExtractCmd.Flags().StringVar(&dir, "dir", DefaultDir, "Migrations directory holding schema.sql, data.sql and roles.sql")
	ExtractCmd.Flags().StringVar(&outputPath, "output", "", "Output file (default: <dir>/"+extract.OutputFileName+")")
	ExtractCmd.Flags().StringVar(&configPath, "config", "", "Extractor config file (default: "+config.FileName+" if present)")
	ExtractCmd.Flags().BoolVar(&multiFile, "multi-file", false, "Write one file per section next to a main file of \\i directives")
	ExtractCmd.Flags().BoolVar(&resolveIncludes, "resolve-includes", false, "Expand \\i directives in the input dumps before extracting")
	ExtractCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	out := io.Writer(os.Stdout)
	if cmd != nil {
		out = cmd.OutOrStdout()
	}
	c := color.New(!noColor)

	inputs := extract.InputsFromDir(dir)
	inputs.ResolveIncludes = resolveIncludes
	if err := inputs.Validate(); err != nil {
		var missing *extract.MissingInputError
		if errors.As(err, &missing) {
			return fmt.Errorf("%s %s", c.Error("Error:"), err)
		}
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := extract.OptionsFromConfig(cfg)
	opts.Progress = out

	fmt.Fprintln(out, "Extracting database objects (tables excluded)...")
	fmt.Fprintln(out, strings.Repeat("=", 60))

	doc, err := extract.ExtractFiles(inputs, opts)
	if err != nil {
		return err
	}

	target := outputPath
	if target == "" {
		target = filepath.Join(dir, extract.OutputFileName)
	}
	result, err := output.New(target, multiFile).Write(doc)
	if err != nil {
		return err
	}
	logger.Get().Debug("Extraction finished", "sections", len(doc.Sections), "files", len(result.Files))

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "%s File written: %s\n", c.OK("[OK]"), result.Path)
	if len(result.Files) > 1 {
		fmt.Fprintf(out, "%s Section files: %d\n", c.Info("[INFO]"), len(result.Files)-1)
	}
	fmt.Fprintf(out, "%s Size: %d characters\n", c.Info("[INFO]"), result.Chars)
	fmt.Fprintf(out, "%s Lines: %d\n", c.Info("[INFO]"), result.Lines)
	return nil
}

// loadConfig reads --config when given, and config.FileName otherwise. A
// missing default file is not an error; a missing explicit one is.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	return cfg, nil
}
