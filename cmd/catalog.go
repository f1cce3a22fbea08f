package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"entity-mapper/feature/library"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRunFlag bool

// catalogCmd groups the catalog transfer commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Move book catalogs between the bucket and the database",
}

// importCmd represents the catalog import command
var importCmd = &cobra.Command{
	Use:   "import [object...]",
	Short: "Import catalog JSON objects into the database",
	Long: `Imports the named catalog objects, or every object under the catalog prefix.
With --dry-run the catalogs are mapped and the pending changes printed, nothing is saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		ctx := cmd.Context()
		imp := a.importer()
		start := time.Now()

		var reports []*library.ImportReport
		if len(args) == 0 {
			reports, err = imp.ImportAll(ctx, dryRunFlag)
		} else {
			for _, object := range args {
				var report *library.ImportReport
				report, err = imp.Import(ctx, object, dryRunFlag)
				if err != nil {
					break
				}
				reports = append(reports, report)
			}
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))

		a.logger.Info("Catalog import completed",
			zap.Int("objects", len(reports)),
			zap.Bool("dry_run", dryRunFlag),
			zap.Duration("execution_time", time.Since(start)),
		)
		return nil
	},
}

// exportCmd represents the catalog export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every book to a catalog object in the bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		object, err := a.importer().Export(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Println(object)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(importCmd, exportCmd)

	importCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Plan the changes without saving them")
}
