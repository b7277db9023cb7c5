package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorendir/gorendir/internal/config"
	"github.com/gorendir/gorendir/internal/repository"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived batch runs",
	Long:  `List recent batch runs from the archive database. Requires database_url to be configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("no database_url configured, the archive is disabled")
		}

		pool, err := config.NewDatabasePool(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := repository.NewRunRepository(pool).ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No archived runs.")
			return nil
		}

		for _, run := range runs {
			status := "finished " + run.FinishedAt.Format("2006-01-02 15:04")
			if run.FinishedAt.IsZero() {
				status = "in progress"
			}
			fmt.Printf("%s  started %s  %s\n",
				run.RunID, run.StartedAt.Format("2006-01-02 15:04"), status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}
