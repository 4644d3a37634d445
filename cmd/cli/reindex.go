package main

import (
	"fmt"
	"time"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/search"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch works index from the database",
	Long: `Walks every published work in the database and pushes it into the
works index. Safe to run while the server is up; documents are replaced
in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connectDB(); err != nil {
			return err
		}
		defer database.Close()

		client, err := search.NewClient()
		if err != nil {
			return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}

		ctx := cmd.Context()
		if err := client.InitializeIndices(ctx); err != nil {
			return fmt.Errorf("failed to initialize indices: %w", err)
		}

		svc := search.NewReconciliationService(client, time.Hour)
		start := time.Now()
		indexed, err := svc.ReindexAllWorks(ctx)
		if err != nil {
			return fmt.Errorf("reindex failed after %d works: %w", indexed, err)
		}
		userIndexed, err := svc.ReindexAllUsers(ctx)
		if err != nil {
			return fmt.Errorf("reindex failed after %d users: %w", userIndexed, err)
		}

		fmt.Printf("Reindexed %d works and %d artists in %s\n",
			indexed, userIndexed, time.Since(start).Round(time.Millisecond))
		return nil
	},
}
