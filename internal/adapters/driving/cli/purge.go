package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/calder-labs/filekb/internal/core/domain"
)

var (
	purgeSource    string
	purgeOlderThan string
	purgeForce     bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete records from the knowledge base",
	Long: `Deletes records matching --source and/or --older-than. Without
--force this is a dry run that only reports what would be deleted.
With no filter and --force the entire index is wiped after an
interactive confirmation.`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().StringVar(&purgeSource, "source", "", "only records from this source")
	purgeCmd.Flags().StringVar(&purgeOlderThan, "older-than", "", "only records indexed before this date (YYYY-MM-DD)")
	purgeCmd.Flags().BoolVar(&purgeForce, "force", false, "actually delete instead of dry run")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	opts := domain.PurgeOptions{
		Source:    purgeSource,
		OlderThan: purgeOlderThan,
		DryRun:    !purgeForce,
		Force:     purgeForce,
	}

	// Wiping the whole index deserves a typed confirmation.
	if purgeForce && purgeSource == "" && purgeOlderThan == "" {
		ok, err := confirmWipe(cmd)
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Aborted.")
			return nil
		}
	}

	report, err := maintenanceService.Purge(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if report.DryRun {
		cmd.Printf("Dry run: would delete ~%d records (%d would remain)\n",
			report.Estimated, report.Remaining)
		cmd.Println("Re-run with --force to delete.")
		return nil
	}

	cmd.Printf("Deleted ~%d records (%d remain)\n", report.Estimated, report.Remaining)
	return nil
}

// confirmWipe asks the user to type the index name. It refuses to
// proceed without an interactive terminal.
func confirmWipe(cmd *cobra.Command) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing full wipe without an interactive terminal: %w", domain.ErrValidation)
	}

	cmd.Printf("This deletes EVERY record in index %q.\n", cfg.Index.Name)
	cmd.Printf("Type the index name to confirm: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == cfg.Index.Name, nil
}
