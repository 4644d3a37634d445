package main

import (
	"fmt"
	"log"
	"os"

	"github.com/artfolio/backend/internal/database"
	"github.com/artfolio/backend/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "artfolio",
	Short: "Artfolio operator CLI",
	Long: `Operator tooling for an Artfolio deployment: rebuild the search
index, run the AI detection gate against local files, and inspect
recent detection outcomes.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "cli.log"); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(eventsCmd)
}

// connectDB initializes the shared database handle for commands that need it
func connectDB() error {
	if err := database.Initialize(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
