package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"blogd/internal/blog"
	"blogd/internal/common/fsutil"
	"blogd/internal/config"
	"blogd/internal/detail"
	"blogd/internal/eventbus"
	"blogd/internal/httpapi"
	"blogd/internal/store"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.flags.Addr = addr
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080")
	return cmd
}

// serve runs the API until ctx is canceled. When ready is non-nil it
// receives the bound listener address once the server accepts connections.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger, ready chan<- string) error {
	dbPath, err := fsutil.Resolve(cfg.DBPath)
	if err != nil {
		return err
	}
	fresh := !fsutil.FileExists(dbPath)
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("db", st.Path()).Bool("created", fresh).Msg("database open")

	eventbus.SetLogger(log)
	detail.SetLogger(log)
	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(cfg.RequestLog)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	keepalive, _ := cfg.Keepalive()
	httpapi.SetWatchKeepalive(keepalive)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)

	svc := blog.New(st, eventbus.NewMemory())
	svc.SetLogger(log)

	// Watch streams end when this context is canceled at shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("blogd listening")
		if ready != nil {
			ready <- ln.Addr().String()
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		grace, _ := cfg.Grace()
		if grace <= 0 {
			grace = 5 * time.Second
		}
		cancelBase()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown")
			return err
		}
		log.Info().Msg("blogd stopped")
		return nil
	})
	return g.Wait()
}
