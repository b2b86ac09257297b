package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/eshaffer321/orderrecon/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(opts *ServeOptions) error {
	cfg := loadConfig(opts.RootOptions)
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(cfg, "api", true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	apiCfg := api.DefaultConfig()
	apiCfg.Port = cfg.Server.Port
	apiCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	if cfg.Server.MaxUploadMB > 0 {
		apiCfg.MaxUploadBytes = int64(cfg.Server.MaxUploadMB) << 20
	}
	if a.engine.Timeout > 0 {
		apiCfg.WriteTimeout = a.engine.Timeout + 30*time.Second
	}

	server := api.NewServer(apiCfg, a.service, a.logger)

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		a.logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	if err := server.Start(); err != nil {
		return err
	}

	<-done
	a.logger.Info("server stopped")
	return nil
}
