package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/kartelo/internal/adapters/archive"
	"github.com/okian/kartelo/internal/adapters/http/api"
	"github.com/okian/kartelo/internal/adapters/http/swagger"
	"github.com/okian/kartelo/internal/adapters/racelog"
	"github.com/okian/kartelo/internal/adapters/report"
	app "github.com/okian/kartelo/internal/app"
	"github.com/okian/kartelo/internal/config"
	"github.com/okian/kartelo/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type options struct {
	serve bool
	top   int
}

func main() {
	var opts options
	flag.BoolVar(&opts.serve, "serve", false, "keep serving the read API after the replay")
	flag.IntVar(&opts.top, "top", 0, "rows in the printed leaderboard (0 prints the whole roster)")
	flag.Parse()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("kartelo: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run loads configuration, replays the race log, writes the reports and
// optionally serves the read API until ctx is done.
func run(ctx context.Context, opts options, stdout, logOut io.Writer) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.InitWithWriter(logOut, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	roster := cfg.Roster
	if cfg.PlayersFile != "" {
		if roster, err = racelog.ReadRosterFile(cfg.PlayersFile); err != nil {
			return err
		}
	}

	entries, err := racelog.ReadFile(cfg.ResultsFile)
	if err != nil {
		return err
	}
	if extra := racelog.Unlisted(racelog.PlayersInLog(entries), roster); len(extra) > 0 {
		log.Warn(ctx, "race log names players missing from the roster; their races will be rejected",
			logger.Any("players", extra))
	}

	svc := app.New(append(app.FromConfig(cfg, roster), app.WithLogger(log.Named("replay")))...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	summary, replayErr := svc.Replay(ctx, entries)
	if replayErr != nil && !errors.Is(replayErr, app.ErrReplayAborted) {
		return replayErr
	}

	if err := writeReports(ctx, cfg, svc); err != nil {
		return err
	}

	n := opts.top
	if n <= 0 || n > len(roster) {
		n = len(roster)
	}
	top, err := svc.TopN(ctx, n)
	if err != nil {
		return err
	}
	report.RenderLeaderboard(stdout, top)
	fmt.Fprintf(stdout, "races: %d applied, %d rejected, %d duplicate\n", summary.Applied, summary.Rejected, summary.Duplicates)

	if replayErr != nil {
		return replayErr
	}
	if !opts.serve {
		return nil
	}
	return serve(ctx, cfg, svc, log)
}

func writeReports(ctx context.Context, cfg *config.Config, svc *app.Service) error {
	if cfg.TrackerFile != "" {
		if err := report.WriteTrackerFile(cfg.TrackerFile, svc.Roster(), svc.Trace()); err != nil {
			return err
		}
	}
	standings, err := svc.Snapshot()
	if err != nil {
		return err
	}
	if cfg.AnalysisFile != "" {
		if err := report.WriteAnalysisFile(cfg.AnalysisFile, standings); err != nil {
			return err
		}
	}
	if cfg.ArchiveFile != "" {
		a, err := archive.Open(ctx, cfg.ArchiveFile)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Save(ctx, svc.Roster(), svc.Trace(), standings); err != nil {
			return err
		}
	}
	return nil
}

// newMux registers the read API and its docs.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

func serve(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
