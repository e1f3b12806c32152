package apply

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pgschema/pgextract/cmd/util"
	"github.com/pgschema/pgextract/internal/color"
	"github.com/pgschema/pgextract/internal/extract"
	"github.com/pgschema/pgextract/internal/include"
	"github.com/pgschema/pgextract/internal/logger"
	"github.com/spf13/cobra"
)

var (
	applyHost            string
	applyPort            int
	applyDB              string
	applyUser            string
	applyPassword        string
	applyFile            string
	applyPerStatement    bool
	applyAutoApprove     bool
	applyDryRun          bool
	applyNoColor         bool
	applyLockTimeout     string
	applyApplicationName string
)

var ApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Replay an extracted document against a database",
	Long: `Execute a document produced by "pgextract extract" against a PostgreSQL database.
Multi-file output is reassembled through its \i directives first. By default the
whole document is sent in one round trip; --per-statement splits it with the
PostgreSQL parser and executes statements one at a time.`,
	Args:    cobra.NoArgs,
	PreRunE: util.PreRunEWithEnvVars(util.ConnectionFlags{DB: &applyDB, User: &applyUser, Host: &applyHost, Port: &applyPort, AppName: &applyApplicationName}),
	RunE:    runApply,
}

func init() {
	ApplyCmd.Flags().StringVar(&applyHost, "host", "localhost", "Database server host")
	ApplyCmd.Flags().IntVar(&applyPort, "port", 5432, "Database server port")
	ApplyCmd.Flags().StringVar(&applyDB, "db", "", "Database name (required)")
	ApplyCmd.Flags().StringVar(&applyUser, "user", "", "Database user name (required)")
	ApplyCmd.Flags().StringVar(&applyPassword, "password", "", "Database password (optional, can also use PGPASSWORD env var)")
	ApplyCmd.Flags().StringVar(&applyFile, "file", filepath.Join("supabase/migrations", extract.OutputFileName), "Extracted document to execute")

	ApplyCmd.Flags().BoolVar(&applyPerStatement, "per-statement", false, "Execute statements one by one instead of as a single batch")
	ApplyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply without prompting for approval")
	ApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "List the statements without executing them")
	ApplyCmd.Flags().BoolVar(&applyNoColor, "no-color", false, "Disable colored output")
	ApplyCmd.Flags().StringVar(&applyLockTimeout, "lock-timeout", "", "Maximum time to wait for database locks (e.g., 30s, 5m)")
	ApplyCmd.Flags().StringVar(&applyApplicationName, "application-name", "pgextract", "Application name for database connection (visible in pg_stat_activity)")
}

// LoadDocument reads path and expands its \i directives.
func LoadDocument(path string) (string, error) {
	content, err := include.NewProcessor(filepath.Dir(path)).ProcessFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return content, nil
}

// SplitStatements splits sqlText into statements with the PostgreSQL parser.
// Comment-only fragments are dropped.
func SplitStatements(sqlText string) ([]string, error) {
	parts, err := pg_query.SplitWithParser(sqlText, true)
	if err != nil {
		return nil, fmt.Errorf("failed to split SQL statements: %w", err)
	}
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(stripLineComments(p)) == "" {
			continue
		}
		statements = append(statements, p)
	}
	return statements, nil
}

func stripLineComments(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// summarize returns the first non-comment line of stmt, shortened for display.
func summarize(stmt string) string {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if r := []rune(line); len(r) > 100 {
			return string(r[:97]) + "..."
		}
		return line
	}
	return ""
}

func runApply(cmd *cobra.Command, args []string) error {
	out := io.Writer(os.Stdout)
	if cmd != nil {
		out = cmd.OutOrStdout()
	}
	c := color.New(!applyNoColor)
	log := logger.Get()

	sqlText, err := LoadDocument(applyFile)
	if err != nil {
		return err
	}
	if strings.TrimSpace(stripLineComments(sqlText)) == "" {
		fmt.Fprintln(out, "No SQL statements to execute.")
		return nil
	}

	// A batch goes to the server as written; only listing and per-statement
	// replay need the parser.
	var statements []string
	if applyDryRun || applyPerStatement {
		statements, err = SplitStatements(sqlText)
		if err != nil {
			return err
		}
		if len(statements) == 0 {
			fmt.Fprintln(out, "No SQL statements to execute.")
			return nil
		}
		fmt.Fprintf(out, "%s %d statements in %s\n", c.Info("[INFO]"), len(statements), applyFile)
	} else {
		fmt.Fprintf(out, "%s Executing %s as a single batch\n", c.Info("[INFO]"), applyFile)
	}

	if applyDryRun {
		for i, stmt := range statements {
			fmt.Fprintf(out, "%4d  %s\n", i+1, summarize(stmt))
		}
		return nil
	}

	if !applyAutoApprove {
		fmt.Fprintf(out, "\nExecute them against %s@%s:%d/%s? (yes/no): ", applyUser, applyHost, applyPort, applyDB)
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "yes" && response != "y" {
			fmt.Fprintln(out, "Apply cancelled.")
			return nil
		}
	}

	conn, err := util.Connect(&util.ConnectionConfig{
		Host:            applyHost,
		Port:            applyPort,
		Database:        applyDB,
		User:            applyUser,
		Password:        util.ResolvePassword(applyPassword),
		SSLMode:         "prefer",
		ApplicationName: applyApplicationName,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := context.Background()

	// Session settings from the preamble must hold for every statement.
	session, err := conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer session.Close()

	if applyLockTimeout != "" {
		stmt := "SET lock_timeout = " + pq.QuoteLiteral(applyLockTimeout)
		if _, err := util.ExecLogged(ctx, session, stmt, "set lock timeout"); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	if applyPerStatement {
		for i, stmt := range statements {
			log.Debug("Executing statement", "index", i+1, "summary", summarize(stmt))
			if _, err := util.ExecLogged(ctx, session, stmt, fmt.Sprintf("statement %d", i+1)); err != nil {
				return fmt.Errorf("failed to execute statement %d (%s): %w", i+1, summarize(stmt), err)
			}
		}
		fmt.Fprintf(out, "%s Applied %d statements.\n", c.OK("[OK]"), len(statements))
		return nil
	}

	if _, err := util.ExecLogged(ctx, session, sqlText, "extracted document"); err != nil {
		return fmt.Errorf("failed to apply %s: %w", applyFile, err)
	}
	fmt.Fprintf(out, "%s Applied %s.\n", c.OK("[OK]"), applyFile)
	return nil
}
