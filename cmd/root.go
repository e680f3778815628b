package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string

	// exitCode carries the warn/fatal signal of the last run. 0 all pass,
	// 1 fatal error on at least one table, 2 completed with warnings.
	exitCode int
)

var RootCmd = &cobra.Command{
	Use:   "mysql-to-postgresql",
	Short: "Single-shot MySQL to PostgreSQL (Neon) table migration",
	Long: `Moves whole tables from a MySQL source into a PostgreSQL-compatible
target. Large tables stream through the COPY protocol with a UTF-8
sanitizer, so a table never has to fit in memory. Re-running a table
drops and reloads it from scratch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.SetLevel(level)
		log.SetOutput(os.Stderr)
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./migrate.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("migrate")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("migrate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug("using config file: ", viper.ConfigFileUsed())
	}
}

// connectFn is swapped out in tests that must not reach a database.
var connectFn = connect

// connect opens both endpoints. The source connection is kept narrow: one
// streaming read at a time plus the occasional count.
func connect(ctx context.Context, cfg *Config) (*sql.DB, *pgxpool.Pool, error) {
	source, err := sql.Open("mysql", cfg.Source.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source: %w", err)
	}
	source.SetMaxOpenConns(2)

	dest, err := pgxpool.New(ctx, cfg.Target.URL())
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("failed to open destination: %w", err)
	}
	return source, dest, nil
}
