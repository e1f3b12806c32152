package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ConnectionFlags points at the flag variables of a command that talks to
// PostgreSQL. Host, Port and AppName are optional.
type ConnectionFlags struct {
	DB      *string
	User    *string
	Host    *string
	Port    *int
	AppName *string
}

// PreRunEWithEnvVars fills connection flags that were not set explicitly
// from PGDATABASE, PGUSER, PGHOST, PGPORT and PGAPPNAME, then checks that a
// database and a user are known.
func PreRunEWithEnvVars(f ConnectionFlags) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fromEnv := func(flag, envVar string, dst *string) {
			if dst != nil && !cmd.Flags().Changed(flag) {
				if v := GetEnvWithDefault(envVar, ""); v != "" {
					*dst = v
				}
			}
		}
		fromEnv("db", "PGDATABASE", f.DB)
		fromEnv("user", "PGUSER", f.User)
		fromEnv("host", "PGHOST", f.Host)
		fromEnv("application-name", "PGAPPNAME", f.AppName)
		if f.Port != nil && !cmd.Flags().Changed("port") {
			if port := GetEnvIntWithDefault("PGPORT", 0); port != 0 {
				*f.Port = port
			}
		}

		if f.DB == nil || *f.DB == "" {
			return fmt.Errorf("database name is required (use --db flag or PGDATABASE environment variable)")
		}
		if f.User == nil || *f.User == "" {
			return fmt.Errorf("database user is required (use --user flag or PGUSER environment variable)")
		}
		return nil
	}
}

// ResolvePassword returns flagValue, falling back to PGPASSWORD.
func ResolvePassword(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("PGPASSWORD")
}
