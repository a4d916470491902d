package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/goldenoak/threadline/pkg/cli/config"
	httpctrl "github.com/goldenoak/threadline/pkg/controller/http"
	"github.com/goldenoak/threadline/pkg/service/worker"
	"github.com/goldenoak/threadline/pkg/usecase"
	"github.com/goldenoak/threadline/pkg/utils/logging"
	"github.com/goldenoak/threadline/pkg/utils/safe"
)

func cmdServe() *cli.Command {
	var addr string
	var refreshInterval time.Duration
	var repoCfg config.Repository
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("THREADLINE_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "History cache refresh interval (0 disables the cache)",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("THREADLINE_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			engineOpts, err := engineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure engine")
			}

			uc := usecase.New(repo, usecase.WithEngineOptions(engineOpts...))

			httpOpts := []httpctrl.Options{}

			// Dashboards poll on a fixed interval; the refresh worker keeps
			// a pre-aggregated view warm so polls do not hit the store.
			var refreshWorker *worker.HistoryRefreshWorker
			if refreshInterval > 0 {
				refreshWorker = worker.NewHistoryRefreshWorker(uc.History, refreshInterval)
				httpOpts = append(httpOpts, httpctrl.WithHistoryCache(refreshWorker))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Graceful shutdown on SIGINT/SIGTERM
			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if refreshWorker != nil {
				if err := refreshWorker.Start(sigCtx); err != nil {
					return goerr.Wrap(err, "failed to start history refresh worker")
				}
			}

			g, gctx := errgroup.WithContext(sigCtx)
			g.Go(func() error {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"case_window_hours", engineCfg.CaseWindowHours(),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()

				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}

			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
