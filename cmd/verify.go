package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
	"github.com/uoy-im/mysql-to-postgresql/internal/transfer"
)

var verifyAll bool

var verifyCmd = &cobra.Command{
	Use:   "verify [table...]",
	Short: "Recount already-migrated tables without transferring",
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

		specs, err := resolveSpecs(catalog, filter, args, "", verifyAll)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no tables selected (name tables or use --all)")
		}

		ctx := context.Background()
		source, dest, err := connectFn(ctx, cfg)
		if err != nil {
			return err
		}
		defer source.Close()
		defer dest.Close()

		runner := &transfer.Runner{Source: source, Dest: transfer.PoolDestination{Pool: dest}, DestSchema: cfg.Target.Schema}
		if err := runner.Ping(ctx); err != nil {
			return err
		}

		fmt.Println("📊 Verification Report:")
		for i, spec := range specs {
			src, dst, err := runner.VerifyCounts(ctx, spec.Name)
			switch {
			case err != nil:
				fmt.Printf("[!] [%02d/%02d] %-20s : %s\n", i+1, len(specs), spec.Name, err)
				exitCode = 1
			case src != dst:
				fmt.Printf("[!] [%02d/%02d] %-20s : %d → %d rows - %s\n",
					i+1, len(specs), spec.Name, src, dst, transfer.StatusWarn)
				if exitCode == 0 {
					exitCode = 2
				}
			default:
				fmt.Printf("[✓] [%02d/%02d] %-20s : %d → %d rows - %s\n",
					i+1, len(specs), spec.Name, src, dst, transfer.StatusPass)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "verify every cataloged table not excluded by the filter")
}
