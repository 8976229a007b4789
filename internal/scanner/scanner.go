package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/notify"
)

// MarketAPI is everything the orchestrator needs from the market client.
type MarketAPI interface {
	MarketData
	Symbols(ctx context.Context) ([]string, error)
}

// Summary is the end-of-run report for one scan-and-notify pass.
type Summary struct {
	Scanned  int
	Signals  int
	Skipped  int
	Messages int
	Sent     int
	Elapsed  time.Duration
}

// Scanner wires universe fetch, batch scheduling, analysis, chunking, and
// delivery into a single stateless pass.
type Scanner struct {
	log       zerolog.Logger
	market    MarketAPI
	cfg       config.Scanner
	notifyCfg config.Notify
	analyzer  *Analyzer
	scheduler *Scheduler
	notifier  notify.Notifier
}

// New assembles a scanner around a shared market client and a notification transport.
func New(log zerolog.Logger, market MarketAPI, cfg config.Scanner, notifyCfg config.Notify, notifier notify.Notifier) *Scanner {
	return &Scanner{
		log:       log,
		market:    market,
		cfg:       cfg,
		notifyCfg: notifyCfg,
		analyzer:  NewAnalyzer(log, market, cfg),
		scheduler: NewScheduler(log, cfg.BatchSize, cfg.Workers),
		notifier:  notifier,
	}
}

// Run performs exactly one scan-report-notify pass. Only a failure to fetch
// the symbol universe is fatal; everything downstream degrades per symbol or
// per message.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()

	symbols, err := s.market.Symbols(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch symbol universe: %w", err)
	}
	if s.cfg.MaxSymbols > 0 && len(symbols) > s.cfg.MaxSymbols {
		symbols = symbols[:s.cfg.MaxSymbols]
	}
	s.log.Info().
		Int("symbols", len(symbols)).
		Int("batch_size", s.scheduler.batchSize).
		Int("workers", s.scheduler.workers).
		Msg("scan started")

	signals := s.scheduler.Run(ctx, symbols, s.analyzer.Analyze, func(p Progress) {
		s.log.Info().
			Int("processed", p.Processed).
			Int("total", p.Total).
			Str("eta", p.Remaining.Round(time.Second).String()).
			Msg("batch complete")
	})

	messages := notify.BuildMessages(signals, s.notifyCfg.MaxMessageLen, s.notifyCfg.MaxSignalsPerMessage)
	pause := time.Duration(s.notifyCfg.PauseMs) * time.Millisecond
	sent := 0
	if len(messages) > 0 {
		sent = notify.Deliver(ctx, s.log, s.notifier, messages, pause)
	} else {
		s.log.Info().Msg("no signals this pass")
	}

	summary := Summary{
		Scanned:  len(symbols),
		Signals:  len(signals),
		Skipped:  s.analyzer.Skipped(),
		Messages: len(messages),
		Sent:     sent,
		Elapsed:  time.Since(start),
	}
	s.log.Info().
		Int("scanned", summary.Scanned).
		Int("signals", summary.Signals).
		Int("skipped", summary.Skipped).
		Int("messages_sent", summary.Sent).
		Dur("elapsed", summary.Elapsed).
		Msg("scan complete")
	return summary, nil
}
