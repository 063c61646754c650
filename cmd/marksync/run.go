package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marksync/internal/app"
	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync client and its local control API",
	Long: `Run the sync client: poll the bookmark server, keep the local view
current and serve the control API on MARKSYNC_LISTEN_ADDR.

Configuration is read from MARKSYNC_* environment variables;
MARKSYNC_SERVER_URL is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = log.Sync() }()

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}
