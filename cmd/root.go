package cmd

import (
	"fmt"
	"os"

	"entity-mapper/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "entity-mapper",
	Short: "Library catalog service built on the entity mapper",
	Long: `Serves a book catalog over HTTP and imports catalogs from object storage.
Every write maps DTO graphs onto the stored entity graph, inserting, updating,
unlinking or deleting the rows that changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
