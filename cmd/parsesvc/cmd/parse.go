package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docuforge/parsesvc/internal/ocrpool"
	"github.com/docuforge/parsesvc/internal/orchestrator"
	"github.com/docuforge/parsesvc/internal/pagepool"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a single document and print the result as JSON",
	Long: `parse runs one document through the same pipeline serve exposes over
HTTP, without starting a server. Useful for local debugging and for
the godog integration suite driving this CLI end-to-end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fileBytes, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("cmd: failed to read %s: %w", args[0], err)
		}

		pagePool := pagepool.Get(pagepool.Config{
			MaxWorkers:    cfg.PagePool.MaxWorkers,
			ReservedCores: cfg.PagePool.ReservedCores,
			MaxLimit:      cfg.PagePool.MaxLimit,
		})
		defer pagePool.Shutdown()

		enableOCR, _ := cmd.Flags().GetBool("ocr")
		var ocrPool *ocrpool.Pool
		if enableOCR {
			ocrPool, err = ocrpool.Get(ocrpool.Config{Command: os.Args[0], Args: []string{"ocr-worker"}})
			if err != nil {
				return fmt.Errorf("cmd: failed to start OCR worker pool: %w", err)
			}
			defer ocrPool.Shutdown()
		}

		language, _ := cmd.Flags().GetString("language")
		orch := orchestrator.New(pagePool, ocrPool)
		result, err := orch.ParseDocument(context.Background(), fileBytes, args[0], orchestrator.Options{
			EnableOCR: enableOCR,
			Language:  language,
		})
		if err != nil {
			return fmt.Errorf("cmd: parse failed: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().Bool("ocr", true, "run OCR on extracted images")
	parseCmd.Flags().String("language", "", "recognizer language hint")
}
