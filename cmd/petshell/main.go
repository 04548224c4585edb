package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Jay-tech456/TamaBotchi/internal/companion"
	"github.com/Jay-tech456/TamaBotchi/internal/config"
	"github.com/Jay-tech456/TamaBotchi/internal/devserver"
	"github.com/Jay-tech456/TamaBotchi/internal/engine"
	"github.com/Jay-tech456/TamaBotchi/internal/panel"
	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
	"github.com/Jay-tech456/TamaBotchi/internal/shell"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		storeURL string
		view     string
	)

	root := &cobra.Command{
		Use:   "petshell",
		Short: "Desktop companion for the message agent",
		Long: `petshell shows an always-on companion with an unread badge and an
on-demand conversation panel backed by the agent's conversation store.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath, storeURL, view)
			if err != nil {
				return err
			}
			return runShell(cfg)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	root.Flags().StringVar(&storeURL, "store", "", "conversation store base URL")
	root.Flags().StringVar(&view, "view", "", "initial view (companion or panel)")

	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newHealthCmd(&cfgPath, &storeURL))
	return root
}

func loadConfig(path, storeURL, view string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storeURL != "" {
		cfg.StoreURL = storeURL
	}
	if view != "" {
		cfg.View = config.NormalizeView(view)
	}
	return cfg, nil
}

func runShell(cfg *config.Config) error {
	// TUI owns the terminal; keep logging quiet so it never corrupts
	// the display.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	slog.SetDefault(logger)

	client := petapi.NewWithTimeout(cfg.StoreURL, cfg.HTTPTimeout)
	eng := engine.New(client)
	bridge := shell.NewBridge()

	newCompanion := func() tea.Model {
		return companion.New(eng, bridge, cfg.BadgeInterval, cfg.HTTPTimeout)
	}
	newPanel := func() tea.Model {
		return panel.New(eng, bridge, cfg.ReconcileInterval, cfg.HTTPTimeout)
	}

	m := shell.New(shell.Config{
		Bridge:       bridge,
		Engine:       eng,
		NewCompanion: newCompanion,
		NewPanel:     newPanel,
		OpenPanel:    cfg.View == config.ViewPanel,
		HTTPTimeout:  cfg.HTTPTimeout,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run shell: %w", err)
	}
	return nil
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var (
		addr string
		seed bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory development store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("seed") {
				cfg.Serve.Seed = seed
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().BoolVar(&seed, "seed", true, "seed example conversations")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	srv := devserver.New(devserver.NewStore(), logger)
	if cfg.Serve.Seed {
		srv.Seed()
	}

	httpSrv := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: srv.Handler(),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutting down store")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}()

	logger.Info("development store listening", "addr", cfg.Serve.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func newHealthCmd(cfgPath, storeURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the conversation store is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, *storeURL, "")
			if err != nil {
				return err
			}
			client := petapi.NewWithTimeout(cfg.StoreURL, cfg.HTTPTimeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HTTPTimeout)
			defer cancel()
			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("store unreachable at %s: %w", cfg.StoreURL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store %s: %s\n", cfg.StoreURL, health.Status)
			return nil
		},
	}
}
