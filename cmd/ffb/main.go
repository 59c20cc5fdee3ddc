package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	cl "fintechfootball/internal/cli"
	"fintechfootball/internal/config"
	"fintechfootball/internal/game"

	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		apiBase    string
		cfg        config.CLIConfig
	)

	root := &cobra.Command{
		Use:          "ffb",
		Short:        "Fintech Football: a three-player club investment game",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadCLI(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			if !cmd.Flags().Changed("api") {
				apiBase = cfg.APIBaseURL
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&apiBase, "api", "", "ffb-api base url (overrides api_base_url)")

	root.AddCommand(
		newPlayCmd(&cfg),
		newProjectsCmd(),
		newHistoryCmd(&apiBase),
		newRemoteCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level(level)}))
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "Show the investment catalog with each project's NPV",
		RunE: func(cmd *cobra.Command, args []string) error {
			views := make([]game.ProjectView, 0, game.DieFaces)
			for _, p := range game.DefaultCatalog() {
				views = append(views, game.ProjectView{Project: p, NPV: p.NPV()})
			}
			renderProjects(views)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently finished games",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).History(ctx, limit)
			if err != nil {
				return err
			}
			renderHistory(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of games to show")
	return cmd
}
