package cmd

import (
	"encoding/json"
	"fmt"

	"entity-mapper/feature/integrity"
	"entity-mapper/feature/library"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the bucket folders and the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		svc := integrity.NewService(a.storage, a.cfg.Storage, a.db, library.Models(), a.logger)

		a.logger.Info("Checking folder structure...")
		missing, err := svc.CheckStructure(cmd.Context())
		if err != nil {
			return fmt.Errorf("structure check failed: %w", err)
		}
		if len(missing) == 0 {
			a.logger.Info("Folder structure is valid")
		} else if fixFlag {
			if err := svc.FixStructure(cmd.Context(), missing); err != nil {
				return fmt.Errorf("failed to fix structure: %w", err)
			}
		} else {
			a.logger.Warn("Missing folders", zap.Strings("missing", missing))
		}

		if a.db == nil {
			a.logger.Warn("Skipping schema check without a database")
			return nil
		}

		report, err := svc.CheckSchema()
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		if !report.Matched {
			return fmt.Errorf("database schema does not match the library models")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders")
}
