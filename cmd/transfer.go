package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gosuri/uiprogress"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/uoy-im/mysql-to-postgresql/internal/dialect"
	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
	"github.com/uoy-im/mysql-to-postgresql/internal/transfer"
)

var (
	batchID string
	allTbl  bool
	dryRun  bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer [table...]",
	Short: "Transfer tables from MySQL to PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}

		filter, err := NewTableFilter(cfg)
		if err != nil {
			return err
		}

		catalog := schema.DefaultCatalog()
		if err := catalog.Validate(); err != nil {
			return fmt.Errorf("table catalog is inconsistent: %w", err)
		}

		specs, err := resolveSpecs(catalog, filter, args, batchID, allTbl)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no tables selected (name tables, or use --batch / --all)")
		}

		if dryRun {
			printPlan(cfg, specs)
			return nil
		}

		ctx := context.Background()
		source, dest, err := connectFn(ctx, cfg)
		if err != nil {
			return err
		}
		defer source.Close()
		defer dest.Close()

		runner := &transfer.Runner{
			Source:     source,
			Dest:       transfer.PoolDestination{Pool: dest},
			DestSchema: cfg.Target.Schema,
		}

		// Both endpoints must answer before any DDL is issued.
		if err := runner.Ping(ctx); err != nil {
			return err
		}

		// The catalog is hand-maintained; flag source tables it misses.
		if allTbl {
			warnUncovered(source, cfg.Source.Database, catalog, filter)
		}

		my := dialect.MySQL{}
		start := time.Now()

		uiprogress.Start()
		var results []schema.TransferResult
		for _, spec := range specs {
			if err := schema.CheckSpec(source, cfg.Source.Database, spec); err != nil {
				results = append(results, schema.TransferResult{
					TableName: spec.Name, Status: transfer.StatusFail, ErrorMsg: err.Error(),
				})
				exitCode = 1
				continue
			}

			var total int64
			if err := source.QueryRowContext(ctx, my.CountQuery(spec.Name)).Scan(&total); err != nil {
				results = append(results, schema.TransferResult{
					TableName: spec.Name, Status: transfer.StatusFail, ErrorMsg: err.Error(),
				})
				exitCode = 1
				continue
			}

			bar := uiprogress.AddBar(int(total) + 1).AppendCompleted().PrependElapsed()
			name := spec.Name
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("%-14s", name)
			})
			runner.OnRow = func() { bar.Incr() }

			res, err := runner.Run(ctx, spec)
			bar.Set(bar.Total)
			results = append(results, res)

			// A fatal error on one table does not stop the run; remaining
			// tables still get their chance.
			if err != nil {
				log.Error(err)
				exitCode = 1
				continue
			}
			if res.Status == transfer.StatusWarn && exitCode == 0 {
				exitCode = 2
			}
		}
		uiprogress.Stop()

		printReport(results, time.Since(start))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&batchID, "batch", "", "transfer all tables of one configured batch")
	transferCmd.Flags().BoolVar(&allTbl, "all", false, "transfer every cataloged table not excluded by the filter")
	transferCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without touching either database")
}

// NewTableFilter compiles the exclude filter from config.
func NewTableFilter(cfg *Config) (*schema.Filter, error) {
	return schema.NewFilter(cfg.Tables.Exclude, cfg.Tables.ExcludePatterns)
}

// resolveSpecs turns one selection mode (named tables, a batch, or all)
// into the specs to operate on.
func resolveSpecs(catalog *schema.Catalog, filter *schema.Filter, args []string, batch string, all bool) ([]schema.TableSpec, error) {
	switch {
	case len(args) > 0 && (batch != "" || all):
		return nil, fmt.Errorf("name tables or use --batch/--all, not both")
	case batch != "" && all:
		return nil, fmt.Errorf("--batch and --all are mutually exclusive")
	case batch != "":
		return catalog.Batch(batch, filter)
	case all:
		return catalog.All(filter), nil
	}

	var specs []schema.TableSpec
	for _, name := range args {
		spec, ok := catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("table %q is not in the catalog", name)
		}
		if filter.Excludes(name) {
			return nil, fmt.Errorf("table %q is excluded by the configured filter", name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func warnUncovered(source *sql.DB, dbName string, catalog *schema.Catalog, filter *schema.Filter) {
	live, err := schema.SourceTables(source, dbName)
	if err != nil {
		log.Warn("could not list source tables: ", err)
		return
	}
	for _, t := range schema.Uncovered(catalog, filter, live) {
		log.Warn("source table not cataloged and not excluded: ", t)
	}
}

func printPlan(cfg *Config, specs []schema.TableSpec) {
	pg := dialect.Postgres{}
	my := dialect.MySQL{}
	fmt.Printf("🔍 Plan (%d tables, destination schema %q):\n", len(specs), cfg.Target.Schema)
	for i, spec := range specs {
		fmt.Printf("[%02d] %s\n", i+1, spec.Name)
		fmt.Printf("     read:  %s\n", my.StreamQuery(spec))
		fmt.Printf("     write: %s\n", pg.CopyQuery(cfg.Target.Schema, spec))
		if spec.HasIdentity() {
			fmt.Printf("     seq:   %s\n", pg.SyncSequenceQuery(cfg.Target.Schema, spec))
		}
	}
}

func printReport(results []schema.TransferResult, elapsed time.Duration) {
	fmt.Println("\n📊 Transfer Report:")
	for i, r := range results {
		icon := "✓"
		if r.Status != transfer.StatusPass {
			icon = "!"
		}
		fmt.Printf("[%s] [%02d/%02d] %-20s : %d → %d rows - %s\n",
			icon, i+1, len(results), r.TableName, r.SourceRows, r.DestRows, r.Status)
		if r.DroppedBytes > 0 {
			fmt.Printf("    └ Dropped %d invalid UTF-8 bytes\n", r.DroppedBytes)
		}
		if r.ErrorMsg != "" {
			fmt.Printf("    └ Error: %s\n", r.ErrorMsg)
		}
	}
	fmt.Println("--------------------------------------------------")
	log.Info("Transfer done! Time elapsed: ", elapsed)
}
