package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/logger"
)

var updateDocuments string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-index changed documents",
	Long: `Replaces the indexed records for every supported file under
--documents: old records for each source are removed, then the file is
ingested fresh. Use this after editing documents in place.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateDocuments, "documents", "", "directory of documents to re-index (required)")
	_ = updateCmd.MarkFlagRequired("documents")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	total := &domain.IngestReport{}

	err := filepath.WalkDir(updateDocuments, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' && path != updateDocuments {
				return filepath.SkipDir
			}
			return nil
		}
		if !registry.Supported(path) {
			total.FilesSkipped++
			return nil
		}

		source := filepath.ToSlash(path)
		logger.Debug("Replacing records for %s", source)

		// Chunk IDs are content-addressed with a random suffix, so a
		// re-ingest would duplicate instead of overwrite. Clear the
		// source first.
		if _, err := maintenanceService.Purge(cmd.Context(), domain.PurgeOptions{
			Source: source,
			Force:  true,
		}); err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s: purge: %v", source, err))
			return nil
		}

		report, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", source, err))
			return nil
		}
		total.ChunksWritten += report.ChunksWritten
		total.FilesProcessed += report.FilesProcessed
		total.Errors = append(total.Errors, report.Errors...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	printIngestReport(cmd, total)
	return nil
}
