// Package serve runs the sightline HTTP API.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/sightline/cmd/application"
	"github.com/agentstation/sightline/internal/cmd/emoji"
	"github.com/agentstation/sightline/internal/server"
	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
)

// options are the flag values of one serve invocation.
type options struct {
	cfg       server.Config
	cors      bool
	maxUpload string
}

// NewCommand returns the serve command. listen is the configured
// host:port used for the --host and --port defaults.
func NewCommand(app application.Application, listen string) *cobra.Command {
	cmd, _ := newCommand(app, listen)
	return cmd
}

func newCommand(app application.Application, listen string) (*cobra.Command, *options) {
	opts := &options{cfg: server.DefaultConfig()}
	if host, port, err := SplitListen(listen); err == nil {
		opts.cfg.Host, opts.cfg.Port = host, port
	}
	opts.maxUpload = strconv.FormatInt(opts.cfg.MaxUploadBytes>>20, 10) + "MiB"

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the HTTP API with WebSocket and SSE updates",
		Long: `Start the sightline HTTP API.

Clients open an analysis session, post export files with their mappings,
and read back the result, a filtered view of it, or a CSV export. Run
events are pushed over WebSocket (/api/v1/updates/ws) and SSE
(/api/v1/updates/stream). Sessions live in memory and expire after
--session-ttl without access.

HTTP_HOST and HTTP_PORT override --host and --port.`,
		Example: `  sightline serve
  sightline serve --host 0.0.0.0 --port 9000 --cors-origins https://inventory.example.com
  sightline serve --max-upload 256MiB --session-ttl 24h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), app, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cfg.Host, "host", opts.cfg.Host, "bind address")
	f.IntVar(&opts.cfg.Port, "port", opts.cfg.Port, "listen port")
	f.StringVar(&opts.cfg.PathPrefix, "prefix", opts.cfg.PathPrefix, "API path prefix")
	f.BoolVar(&opts.cors, "cors", false, "allow cross-origin requests from any origin")
	f.StringSliceVar(&opts.cfg.CORSOrigins, "cors-origins", nil, "allow cross-origin requests from these origins only")
	f.DurationVar(&opts.cfg.SessionTTL, "session-ttl", opts.cfg.SessionTTL, "idle time after which a session expires")
	f.StringVar(&opts.maxUpload, "max-upload", opts.maxUpload, "largest accepted request body (bytes, KiB, MiB or GiB)")
	f.DurationVar(&opts.cfg.ReadTimeout, "read-timeout", opts.cfg.ReadTimeout, "HTTP read timeout")
	f.DurationVar(&opts.cfg.WriteTimeout, "write-timeout", opts.cfg.WriteTimeout, "HTTP write timeout")
	f.DurationVar(&opts.cfg.IdleTimeout, "idle-timeout", opts.cfg.IdleTimeout, "HTTP keep-alive idle timeout")
	f.BoolVar(&opts.cfg.MetricsEnabled, "metrics", opts.cfg.MetricsEnabled, "serve Prometheus metrics at /metrics")
	return cmd, opts
}

// config resolves the flag values and the HTTP_HOST and HTTP_PORT
// environment variables into a validated server configuration.
func (o *options) config() (server.Config, error) {
	cfg := o.cfg
	var err error
	if cfg.MaxUploadBytes, err = ParseSize(o.maxUpload); err != nil {
		return server.Config{}, err
	}
	cfg.CORSEnabled = o.cors || len(cfg.CORSOrigins) > 0

	if host := os.Getenv("HTTP_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if cfg.Port, err = parsePort(port); err != nil {
			return server.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return server.Config{}, err
	}
	return cfg, nil
}

// SplitListen splits a host:port address. An empty host binds every
// interface.
func SplitListen(listen string) (string, int, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", 0, errors.NewValidationError("listen", listen, "expected host:port")
	}
	p, err := parsePort(port)
	return host, p, err
}

var sizeUnits = []struct {
	suffix string
	shift  uint
}{{"GiB", 30}, {"MiB", 20}, {"KiB", 10}, {"B", 0}}

// ParseSize parses a positive byte count with an optional B, KiB, MiB or
// GiB suffix.
func ParseSize(s string) (int64, error) {
	num, shift := s, uint(0)
	for _, u := range sizeUnits {
		if trimmed, ok := strings.CutSuffix(s, u.suffix); ok {
			num, shift = trimmed, u.shift
			break
		}
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError("max-upload", s, "must be a positive size such as 1048576 or 64MiB")
	}
	return n << shift, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.NewValidationError("port", s, "must be between 1 and 65535")
	}
	return port, nil
}

// runServer serves until ctx is done, then drains connections and stops
// the session registry and event transports.
func runServer(ctx context.Context, app application.Application, cfg server.Config, out io.Writer) error {
	logger := app.Logger()
	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()
	httpServer := srv.HTTPServer()

	failed := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr()).
			Str("prefix", cfg.PathPrefix).
			Bool("cors", cfg.CORSEnabled).
			Dur("session_ttl", cfg.SessionTTL).
			Int64("max_upload_bytes", cfg.MaxUploadBytes).
			Msg("API server listening")
		fmt.Fprintf(out, "%s API server listening on %s, press Ctrl+C to stop\n", emoji.Info, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-failed:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	fmt.Fprintf(out, "%s Shutting down API server...\n", emoji.Stop)
	// ctx is already done; draining gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Background services did not stop cleanly")
	}
	logger.Info().Msg("API server stopped")
	fmt.Fprintf(out, "%s API server stopped gracefully\n", emoji.Success)
	return nil
}
