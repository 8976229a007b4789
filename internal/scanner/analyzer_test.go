package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/signal"
)

type fakeMarket struct {
	mu     sync.Mutex
	closes map[string][]float64
	errs   map[string]error
}

func (f *fakeMarket) Closes(_ context.Context, symbol string, _ int) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	series, ok := f.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	return series, nil
}

func (f *fakeMarket) Symbols(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbols := make([]string, 0, len(f.closes)+len(f.errs))
	for sym := range f.closes {
		symbols = append(symbols, sym)
	}
	for sym := range f.errs {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func fallingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 - 2*float64(i)
	}
	return out
}

func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 2*float64(i)
	}
	return out
}

func quietSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.1*float64(i%2)
	}
	return out
}

func testScannerCfg() config.Scanner {
	return config.Scanner{
		BatchSize:     30,
		Workers:       10,
		KlineLimit:    50,
		MinHistory:    20,
		RSIPeriod:     14,
		VolWindow:     20,
		VolThreshold:  5,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

func TestAnalyzeLongSignal(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{"DROP_USDT_PERP": fallingSeries(30)}}
	a := NewAnalyzer(zerolog.Nop(), market, testScannerCfg())

	sig := a.Analyze(context.Background(), "DROP_USDT_PERP")
	if sig == nil {
		t.Fatalf("expected long signal")
	}
	if sig.Zone != signal.ZoneLong {
		t.Fatalf("expected LONG, got %s", sig.Zone)
	}
	if sig.RSI != 0 {
		t.Fatalf("expected RSI 0 for falling series, got %.2f", sig.RSI)
	}
	if sig.Price != fallingSeries(30)[29] {
		t.Fatalf("expected latest close as price, got %.2f", sig.Price)
	}
}

func TestAnalyzeShortSignal(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{"PUMP_USDT_PERP": risingSeries(30)}}
	a := NewAnalyzer(zerolog.Nop(), market, testScannerCfg())

	sig := a.Analyze(context.Background(), "PUMP_USDT_PERP")
	if sig == nil {
		t.Fatalf("expected short signal")
	}
	if sig.Zone != signal.ZoneShort {
		t.Fatalf("expected SHORT, got %s", sig.Zone)
	}
	if sig.RSI != 100 {
		t.Fatalf("expected RSI 100 for rising series, got %.2f", sig.RSI)
	}
}

func TestAnalyzeQuietSymbolNoSignal(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{"FLAT_USDT_PERP": quietSeries(30)}}
	a := NewAnalyzer(zerolog.Nop(), market, testScannerCfg())

	if sig := a.Analyze(context.Background(), "FLAT_USDT_PERP"); sig != nil {
		t.Fatalf("expected no signal for quiet symbol, got %+v", sig)
	}
	if a.Skipped() != 0 {
		t.Fatalf("quiet symbol is not a skip, got %d", a.Skipped())
	}
}

func TestAnalyzeShortHistorySkipped(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{"NEW_USDT_PERP": fallingSeries(10)}}
	a := NewAnalyzer(zerolog.Nop(), market, testScannerCfg())

	if sig := a.Analyze(context.Background(), "NEW_USDT_PERP"); sig != nil {
		t.Fatalf("expected nil for 10-bar history, got %+v", sig)
	}
	if a.Skipped() != 1 {
		t.Fatalf("expected 1 skip, got %d", a.Skipped())
	}
}

func TestAnalyzeFetchErrorSkipped(t *testing.T) {
	market := &fakeMarket{errs: map[string]error{"DEAD_USDT_PERP": errors.New("giving up after 3 attempts")}}
	a := NewAnalyzer(zerolog.Nop(), market, testScannerCfg())

	if sig := a.Analyze(context.Background(), "DEAD_USDT_PERP"); sig != nil {
		t.Fatalf("expected nil on fetch failure, got %+v", sig)
	}
	if a.Skipped() != 1 {
		t.Fatalf("expected 1 skip, got %d", a.Skipped())
	}
}
