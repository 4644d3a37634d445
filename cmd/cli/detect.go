package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/artfolio/backend/internal/detection"
	"github.com/artfolio/backend/internal/util"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run the AI detection gate against local content",
}

var detectImageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Score a local image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !util.IsValidImageFile(path) {
			return fmt.Errorf("%s is not a supported image type (jpg, png, gif, webp)", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		gate := detection.NewGate(detection.ConfigFromEnv())
		verdict, err := gate.Check(cmd.Context(), detection.Submission{
			ImageBytes:    data,
			ImageFilename: filepath.Base(path),
			ImageMIME:     mime.TypeByExtension(filepath.Ext(path)),
		})
		if err != nil {
			return err
		}
		printVerdict(verdict)
		return nil
	},
}

var detectTextCmd = &cobra.Command{
	Use:   "text <path>",
	Short: "Score a local text file as an essay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		gate := detection.NewGate(detection.ConfigFromEnv())
		verdict, err := gate.Check(cmd.Context(), detection.Submission{
			Text: string(data),
		})
		if err != nil {
			return err
		}
		printVerdict(verdict)
		return nil
	},
}

func printVerdict(v *detection.Verdict) {
	for _, r := range v.Results {
		status := "PASS"
		if !r.Passed {
			status = "REJECT"
		}
		fmt.Printf("%-6s %-6s score=%.3f threshold=%.2f provider=%s\n",
			status, r.Modality, r.Score, r.Threshold, r.Provider)
		if r.Warning != "" {
			fmt.Printf("       warning: %s\n", r.Warning)
		}
		if r.Reasoning != "" {
			fmt.Printf("       reasoning: %s\n", r.Reasoning)
		}
	}
	if v.Accepted {
		fmt.Println("verdict: accepted")
	} else {
		fmt.Printf("verdict: rejected - %s\n", v.Message)
	}
}

func init() {
	detectCmd.AddCommand(detectImageCmd)
	detectCmd.AddCommand(detectTextCmd)
}
