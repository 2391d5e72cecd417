package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder-labs/filekb/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and re-index files as they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"quiet interval before a changed file is re-indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := initEngine(false); err != nil {
		return err
	}

	w := watcher.New(ingestService, registry.Supported, watcher.WithDebounce(watchDebounce))
	cmd.Printf("Watching %s, Ctrl+C to stop.\n", args[0])

	if err := w.Watch(cmd.Context(), args[0]); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
