package main

//
//  @title           debpulse API
//  @version         1.0
//  @description     ANBIMA debenture daily price ingestion and query service.
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/debpulse
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        prices
//  @tag.description Persisted daily debenture prices
//
//  @tag.name        runs
//  @tag.description Batch ingestion history
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/debpulse/config"
	_ "github.com/guttosm/debpulse/docs" // swagger docs
	"github.com/guttosm/debpulse/internal/app"
	"github.com/guttosm/debpulse/internal/ingestion"
	"github.com/guttosm/debpulse/internal/logger"
)

// Process exit codes.
const (
	exitOK                = 0
	exitFailure           = 1
	exitNothingDownloaded = 2
)

const shutdownTimeout = 10 * time.Second

type options struct {
	mode string
	days int
	port string
}

// parseFlags reads the command line. --days and --port default to the
// loaded configuration.
func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("debpulse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.mode, "mode", "ingest", "Mode: ingest or api")
	fs.IntVar(&opts.days, "days", cfg.Batch.NumDays, "Number of prior business days to fetch")
	fs.StringVar(&opts.port, "port", cfg.Server.Port, "Port for API mode")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// exitCode maps the outcome of a batch run to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ingestion.ErrNothingDownloaded):
		return exitNothingDownloaded
	default:
		return exitFailure
	}
}

func newServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs the HTTP server until ctx is done, then shuts it down
// gracefully. A listener failure cancels the group and is returned.
func serve(ctx context.Context, handler http.Handler, ln net.Listener) error {
	server := newServer(handler, ln.Addr().String())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info().Str("addr", ln.Addr().String()).Msg("server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runIngest(ctx context.Context, cfg config.Config, days int) int {
	proc, cleanup, err := app.NewBatch(cfg)
	defer cleanup()
	if err != nil {
		logger.L().Error().Err(err).Msg("batch setup failed")
		return exitFailure
	}

	res, err := proc.Run(ctx, days)
	code := exitCode(err)
	logger.L().Info().
		Str("run_id", res.RunID).
		Int("downloaded", len(res.Downloaded)).
		Int("rows", res.Rows).
		Int("exit_code", code).
		Msg("ingestion finished")
	return code
}

func runAPI(ctx context.Context, port string) int {
	router, cleanup, err := app.InitializeApp()
	if err != nil {
		logger.L().Error().Err(err).Msg("app init error")
		return exitFailure
	}
	defer cleanup()

	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.L().Error().Err(err).Str("port", port).Msg("listen failed")
		return exitFailure
	}
	if err := serve(ctx, router, ln); err != nil {
		logger.L().Error().Err(err).Msg("server failed")
		return exitFailure
	}
	logger.L().Info().Msg("server exited gracefully")
	return exitOK
}

// run is main without os.Exit.
//
// Modes (selected via --mode):
//   - ingest: fetch, parse and append the last --days business days of
//     ANBIMA debenture price files. Exit 0 on success, 2 when no file
//     could be downloaded, 1 on any other failure.
//   - api: serve the read API until SIGINT/SIGTERM.
func run(args []string) int {
	config.LoadConfig()
	logger.Init()
	cfg := config.AppConfig

	opts, err := parseFlags(args, cfg, os.Stderr)
	if err != nil {
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.mode {
	case "ingest":
		return runIngest(ctx, cfg, opts.days)
	case "api":
		return runAPI(ctx, opts.port)
	default:
		logger.L().Error().Str("mode", opts.mode).Msg("unknown mode")
		return exitFailure
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}
