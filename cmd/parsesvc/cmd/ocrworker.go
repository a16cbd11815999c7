package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docuforge/parsesvc/internal/ocrengine"
	"github.com/docuforge/parsesvc/internal/ocrpool"
)

// ocrWorkerCmd is the hidden subprocess entrypoint internal/ocrpool spawns
// one of per pool slot (spec §4.4). It is never invoked directly by a
// user; serveCmd configures ocrpool.Config{Command: os.Args[0], Args:
// []string{"ocr-worker"}} so the pool re-execs this same binary.
var ocrWorkerCmd = &cobra.Command{
	Use:    "ocr-worker",
	Short:  "Internal OCR worker subprocess (not for direct use)",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := ocrengine.Get(ocrengine.Config{
			DetectorModelPath:   os.Getenv("PARSER_OCR_DETECTOR_MODEL"),
			RecognizerModelPath: os.Getenv("PARSER_OCR_RECOGNIZER_MODEL"),
			DictionaryPath:      os.Getenv("PARSER_OCR_DICTIONARY"),
		})
		if err != nil {
			slog.Error("ocr-worker: failed to initialize engine", "error", err)
			return err
		}

		return ocrpool.RunWorker(os.Stdin, os.Stdout, engine.Recognize)
	},
}

func init() {
	rootCmd.AddCommand(ocrWorkerCmd)
}
