package cli

import (
	"github.com/spf13/cobra"

	"github.com/calder-labs/filekb/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and question answering over HTTP",
	Long: `Starts an HTTP API with POST /api/search, POST /api/ask and
GET /healthz.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initEngine(true); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Serve.Addr
	}

	srv := httpapi.NewServer(searchService, answerService, maintenanceService)
	return srv.Run(addr)
}
