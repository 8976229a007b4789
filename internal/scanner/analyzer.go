// Package scanner runs the RSI/volatility batch scan: per-symbol analysis
// fanned out over a bounded worker pool, aggregated into chat notifications.
package scanner

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/indicator"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/metrics"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/signal"
)

// MarketData is the slice of the market client the analyzer consumes.
type MarketData interface {
	Closes(ctx context.Context, symbol string, limit int) ([]float64, error)
}

// Analyzer classifies one symbol at a time. A symbol that cannot be analyzed
// (fetch failure, short history, bad payload) is skipped, never fatal: one
// dead symbol must not sink the scan.
type Analyzer struct {
	log     zerolog.Logger
	market  MarketData
	cfg     config.Scanner
	skipped atomic.Int64
}

// NewAnalyzer applies defaults for zero-valued windows and thresholds.
func NewAnalyzer(log zerolog.Logger, market MarketData, cfg config.Scanner) *Analyzer {
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = 100
	}
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = 20
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = 14
	}
	if cfg.VolWindow <= 0 {
		cfg.VolWindow = 20
	}
	if cfg.RSIOversold <= 0 {
		cfg.RSIOversold = 30
	}
	if cfg.RSIOverbought <= 0 {
		cfg.RSIOverbought = 70
	}
	return &Analyzer{log: log, market: market, cfg: cfg}
}

// Analyze fetches recent history for symbol and returns a directional signal,
// or nil when the symbol does not qualify.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) *signal.Signal {
	closes, err := a.market.Closes(ctx, symbol, a.cfg.KlineLimit)
	if err != nil {
		a.skip(symbol, "fetch", err)
		return nil
	}
	if len(closes) < a.cfg.MinHistory {
		a.skip(symbol, "short_history", nil)
		return nil
	}
	price := closes[len(closes)-1]
	if price <= 0 {
		a.skip(symbol, "bad_price", nil)
		return nil
	}

	rsi, err := indicator.RSI(closes, a.cfg.RSIPeriod)
	if err != nil {
		if !errors.Is(err, indicator.ErrInsufficientData) {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("rsi computation failed")
		}
		a.skip(symbol, "short_history", nil)
		return nil
	}
	vol := indicator.Volatility(closes, a.cfg.VolWindow)

	if vol < a.cfg.VolThreshold {
		return nil
	}
	var zone signal.Zone
	switch {
	case rsi <= a.cfg.RSIOversold:
		zone = signal.ZoneLong
	case rsi >= a.cfg.RSIOverbought:
		zone = signal.ZoneShort
	default:
		return nil
	}

	metrics.SignalsTotal.WithLabelValues(zone.String()).Inc()
	return &signal.Signal{Symbol: symbol, Zone: zone, RSI: rsi, Volatility: vol, Price: price}
}

// Skipped reports how many symbols contributed no data this run.
func (a *Analyzer) Skipped() int {
	return int(a.skipped.Load())
}

func (a *Analyzer) skip(symbol, reason string, err error) {
	a.skipped.Add(1)
	metrics.SymbolsSkippedTotal.WithLabelValues(reason).Inc()
	evt := a.log.Debug().Str("symbol", symbol).Str("reason", reason)
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("symbol skipped")
}
