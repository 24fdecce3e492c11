package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run streams behind an HTTP API",
		Long: `Log in to the center and expose the stream registry over HTTP.

Streams are created and closed through the API; finished recordings
are kept in memory for download and written to every configured sink.
Prometheus metrics are served on /metrics.

Examples:
  camlink serve --center ws://10.0.0.5:9000/msg
  camlink serve --port 8080
  curl -XPOST localhost:9180/streams -d '{"url":"ws://...","element_id":"a","media_id":"m1","cam_id":"3","chn_id":"0"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g, host, port)
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from camlink.json)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from camlink.json)")

	return cmd
}

func runServe(g *globalFlags, host string, port int) error {
	a, err := setup(g, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if host != "" {
		a.cfg.Server.Host = host
	}
	if port > 0 {
		a.cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := a.login(ctx, nil)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           newRouter(c, c.Channel().State, a.store, a.registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		a.logger.Warn().Err(serr).Msg("http shutdown")
	}
	if cerr := c.Logout(shutdownCtx); cerr != nil {
		a.logger.Warn().Err(cerr).Msg("logout")
	}
	a.logger.Info().Msg("stopped")
	return err
}
