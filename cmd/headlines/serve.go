package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/headlines/render"
	"github.com/pevans/headlines/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveSkipFailed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve archived digests over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", getEnv("HEADLINES_ADDR", ":8080"), "listen address")
	serveCmd.Flags().BoolVar(&serveSkipFailed, "skip-failed", false, "leave out failing sites in builds started over HTTP")
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Archive.Disabled {
		return errors.New("serve needs the archive, but it is disabled in the config")
	}
	logger := newLogger(os.Stderr)

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	api := server.NewAPIServer(
		store,
		render.NewRenderer(render.WithTitle(cfg.Title)),
		newBuilder(cfg, logger, serveSkipFailed),
		pageTitle(cfg),
		logger,
	)

	srv := &http.Server{
		Addr:    serveAddr,
		Handler: api.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", serveAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
