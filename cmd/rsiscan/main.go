package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/market"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/metrics"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/notify"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/scanner"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		l := util.NewLogger("info", true)
		l.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel, cfg.App.PrettyLog)

	srv := metrics.Serve(cfg.App.MetricsAddr)
	defer srv.Close()
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := market.NewClient(log, cfg.Market.BaseURL,
		market.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Market.TimeoutMs) * time.Millisecond}),
		market.WithRequestDelay(time.Duration(cfg.Market.RequestDelayMs)*time.Millisecond),
		market.WithRetryPolicy(cfg.Market.MaxRetries,
			time.Duration(cfg.Market.BackoffCapRateLimitSecs)*time.Second,
			time.Duration(cfg.Market.BackoffCapServerSecs)*time.Second),
		market.WithKlineParams(cfg.Market.KlineInterval, cfg.Market.KlineType),
	)
	notifier := notify.FromConfig(log, cfg.Notify)

	s := scanner.New(log, client, cfg.Scanner, cfg.Notify, notifier)
	if _, err := s.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}
}
