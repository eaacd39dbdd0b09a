// Command zulip-mcp serves Zulip workspace operations as MCP tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zulip-mcp/internal/config"
	"zulip-mcp/internal/server"
	"zulip-mcp/internal/zulip"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zulip-mcp:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile, transport string

	root := &cobra.Command{
		Use:           "zulip-mcp",
		Short:         "Expose a Zulip bot account as MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.Transport = transport
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.Flags().StringVar(&transport, "transport", "", "override MCP_TRANSPORT (stdio or http)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func run(parent context.Context, cfg *config.Config) error {
	level, _ := config.ParseLevel(cfg.LogLevel)
	// stdout carries the MCP stream
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	zulip.UserAgent = "zulip-mcp/" + version
	client := zulip.New(cfg.ZulipURL, cfg.ZulipEmail, cfg.ZulipAPIKey, &http.Client{Timeout: cfg.ZulipTimeout})

	if cfg.ZulipVerify {
		if err := connect(ctx, client); err != nil {
			return err
		}
	}
	logger.Info("zulip connection ready", "config", cfg)

	dispatcher := server.NewDispatcher(server.NewFacade(client), logger)

	switch cfg.Transport {
	case config.TransportHTTP:
		return serveHTTP(ctx, cfg, dispatcher, logger)
	default:
		logger.Info("serving MCP on stdio")
		err := server.NewMCPServer("zulip-mcp", version, dispatcher).Serve(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// connect verifies the credential before any tool call is accepted.
func connect(ctx context.Context, client *zulip.Client) error {
	if _, err := client.Me(ctx); err != nil {
		if zulip.IsUnauthorized(err) {
			return fmt.Errorf("zulip rejected ZULIP_EMAIL/ZULIP_API_KEY: %w", err)
		}
		return fmt.Errorf("connect to zulip: %w", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, d *server.Dispatcher, logger *slog.Logger) error {
	if cfg.Token == "" {
		logger.Warn("MCP_TOKEN not set; endpoints will be open. Set MCP_TOKEN to secure.")
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(server.Config{Token: cfg.Token}, d).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCertFile != "" {
			logger.Info("starting MCP HTTPS server", "addr", srv.Addr)
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		logger.Warn("TLS_CERT_FILE and TLS_KEY_FILE not set; serving plain HTTP. Run behind a TLS-terminating proxy.")
		logger.Info("starting MCP HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
