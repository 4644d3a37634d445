package main

import (
	"fmt"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/models"
	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent detection gate outcomes",
	Long: `Lists the most recent detection audit rows: rejections, degraded
passes and provider failures. Clean passes are not recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connectDB(); err != nil {
			return err
		}
		defer database.Close()

		var events []models.DetectionEvent
		if err := database.DB.
			Order("created_at DESC").
			Limit(eventsLimit).
			Find(&events).Error; err != nil {
			return fmt.Errorf("failed to load detection events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("no detection events recorded")
			return nil
		}

		for _, e := range events {
			line := fmt.Sprintf("%s  %-13s %-6s user=%s provider=%s",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Outcome, e.Modality, e.UserID, e.Provider)
			if e.Outcome == "rejected" {
				line += fmt.Sprintf(" score=%.3f", e.Score)
			}
			if e.Warning != "" {
				line += " warning=" + e.Warning
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "Maximum number of events to show")
}
