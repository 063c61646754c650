package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marksync/internal/app"
	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// openStore is replaced in tests.
var openStore = func(ctx context.Context, cfg *config.Config) (engine.StateStore, func(), error) {
	store, client, err := app.OpenStore(ctx, cfg, logger.Nop())
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if client != nil {
		closeFn = func() { _ = client.Close() }
	}
	return store, closeFn, nil
}

// applyState hands the change to a running client when there is one, so it
// takes effect immediately, and otherwise edits the stored state directly.
func applyState(ctx context.Context, cfg *config.Config, api *apiClient, method, path string, body any, edit func(*domain.ClientState)) error {
	err := api.do(ctx, method, path, body)
	if err == nil {
		printSuccess("applied to the running client")
		return nil
	}
	if !errors.Is(err, errDaemonDown) {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	st, err := store.Load(ctx)
	if err != nil {
		return err
	}
	edit(&st)
	if err := store.Save(ctx, st); err != nil {
		return err
	}
	printSuccess("saved for profile %s", cfg.Profile)
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login <token>",
	Short: "Store the bearer token used to reach the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimSpace(args[0])
		if token == "" {
			return errors.New("token is required")
		}
		cfg := config.Load()
		return applyState(cmd.Context(), cfg, newAPIClient(cfg.ListenAddr),
			http.MethodPut, "/api/credential", map[string]string{"token": token},
			func(st *domain.ClientState) { st.Credential = token })
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		return applyState(cmd.Context(), cfg, newAPIClient(cfg.ListenAddr),
			http.MethodDelete, "/api/credential", nil,
			func(st *domain.ClientState) { st.Credential = "" })
	},
}

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage the active workspace",
}

var workspaceUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Activate a workspace (\"\" or --none to deactivate)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		none, _ := cmd.Flags().GetBool("none")
		id := ""
		if len(args) == 1 {
			id = strings.TrimSpace(args[0])
		}
		if id == "" && !none {
			return errors.New("workspace id is required (or pass --none)")
		}
		cfg := config.Load()
		return applyState(cmd.Context(), cfg, newAPIClient(cfg.ListenAddr),
			http.MethodPut, "/api/query/workspace", map[string]string{"workspace_id": id},
			func(st *domain.ClientState) { st.ActiveWorkspace = id })
	},
}

func init() {
	workspaceUseCmd.Flags().Bool("none", false, "deactivate the current workspace")
	workspaceCmd.AddCommand(workspaceUseCmd)
}
