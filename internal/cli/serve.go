package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/example/langler/internal/bot"
	"github.com/example/langler/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the reminder jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	api, err := bot.Connect(a.cfg.TelegramBotToken)
	if err != nil {
		return err
	}
	a.logger.Info("authorized", "account", api.Self.UserName)

	b := bot.New(api, bot.Deps{
		Users:   a.users,
		Words:   a.words,
		Reviews: a.reviews,
		Levels:  a.levels,
	}, bot.DefaultConfig(), a.logger.WithPrefix("bot"))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.EnableScheduler {
		jobs := scheduler.New(scheduler.Config{
			NotificationStartHour: a.cfg.NotificationStartHour,
			NotificationEndHour:   a.cfg.NotificationEndHour,
			SweepInterval:         a.cfg.CacheSweepInterval,
		}, b, a.users, a.items, a.table, a.logger.WithPrefix("scheduler"))
		if err := jobs.Start(); err != nil {
			return err
		}
		defer jobs.Stop()
	}

	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics listening", "addr", a.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("metrics shutdown", "err", err)
			}
		}()
	}

	err = b.Start(ctx)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutting down")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}
