package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/harvester/internal/config"
	"github.com/nao1215/harvester/internal/controller"
	"github.com/nao1215/harvester/internal/metrics"
	"github.com/nao1215/harvester/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API the browser extension talks to",
		Long: `Serve loads the stored rules, run state and collection, then serves the
HTTP API on the listen address until interrupted.

While running, every top-frame navigation the extension reports is scanned
with the stored rules. Items found are merged into the collection and pushed
to connected popups over the /api/ws websocket.

Examples:
  # Serve on the default address (127.0.0.1:8765)
  harvester serve

  # Route all page and script fetches through a local Tor daemon
  harvester serve --tor

  # Only accept requests from one extension
  harvester serve --cors-origin chrome-extension://abcdefghijklmnop`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the API listens on")
	cmd.Flags().Bool("tor", false,
		"Fetch through the Tor SOCKS5 proxy at "+config.DefaultTorProxyAddress)
	cmd.Flags().StringSlice("cors-origin", nil,
		"Origins allowed to call the API (default: any)")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer := setupLogger(cmd, cfg, slog.LevelInfo)
	defer closer.Close() //nolint:errcheck // best effort flush

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub := server.NewHub(server.WithHubLogger(logger), server.WithHubMetrics(m))

	a, err := newApp(ctx, cfg, logger, m, controller.WithNotifier(hub))
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // shutdown path

	corsCfg := server.DefaultCORSConfig()
	corsCfg.AllowOrigins, err = cmd.Flags().GetStringSlice("cors-origin")
	if err != nil {
		return err
	}

	srv := server.New(a.controller,
		server.WithHub(hub),
		server.WithHistory(a.db),
		server.WithMetrics(m),
		server.WithCORS(corsCfg),
		server.WithLogger(logger),
	)

	status := "stopped"
	if a.controller.Running() {
		status = "running"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "harvester %s: serving on http://%s (auto-scan %s, %d items, %d rules)\n",
		getVersion(), cfg.ListenAddress, status, a.controller.CollectionSize(), len(a.controller.Rules()))

	return srv.Run(ctx, cfg.ListenAddress)
}

// applyServeFlags applies serve-specific flags to cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		listen, err := flags.GetString("listen")
		if err != nil {
			return err
		}
		cfg.ListenAddress = listen
	}
	return applyTorFlag(cmd, cfg)
}

// applyTorFlag points the proxy at the local Tor daemon when --tor is set
// and no proxy is configured.
func applyTorFlag(cmd *cobra.Command, cfg *config.Config) error {
	useTor, err := cmd.Flags().GetBool("tor")
	if err != nil {
		return err
	}
	if useTor && cfg.ProxyAddress == "" {
		cfg.ProxyAddress = config.DefaultTorProxyAddress
	}
	return nil
}
