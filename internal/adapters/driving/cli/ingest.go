package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calder-labs/filekb/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Index documents from a directory",
	Long: `Walks the directory, extracts text from every supported file,
splits it into chunks and writes embeddings to the vector index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	report, err := ingestService.IngestDirectory(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printIngestReport(cmd, report)

	if report.FilesProcessed == 0 {
		return fmt.Errorf("no files were ingested from %s", args[0])
	}
	return nil
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Ingested %d chunks from %d files (%d skipped)\n",
		report.ChunksWritten, report.FilesProcessed, report.FilesSkipped)

	if len(report.Errors) > 0 {
		cmd.Printf("\n%d files failed:\n", len(report.Errors))
		for _, e := range report.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}
