package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return nil
}

func TestScannerRunEndToEnd(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{}}
	for i := 0; i < 65; i++ {
		sym := fmt.Sprintf("SYM%02d_USDT_PERP", i)
		switch {
		case i < 3:
			market.closes[sym] = fallingSeries(30) // LONG
		case i == 3:
			market.closes[sym] = fallingSeries(10) // short history, skipped
		case i == 4:
			market.closes[sym] = risingSeries(30) // SHORT
		default:
			market.closes[sym] = quietSeries(30) // no signal
		}
	}

	notifier := &recordingNotifier{}
	notifyCfg := config.Notify{MaxMessageLen: 4000, MaxSignalsPerMessage: 25, PauseMs: 0}
	s := New(zerolog.Nop(), market, testScannerCfg(), notifyCfg, notifier)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Scanned != 65 {
		t.Fatalf("expected 65 scanned, got %d", summary.Scanned)
	}
	if summary.Signals != 4 {
		t.Fatalf("expected 4 signals, got %d", summary.Signals)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected 1 skipped symbol, got %d", summary.Skipped)
	}
	if summary.Messages != 1 || summary.Sent != 1 {
		t.Fatalf("expected a single delivered message, got %+v", summary)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	for _, sym := range []string{"SYM00_USDT_PERP", "SYM01_USDT_PERP", "SYM02_USDT_PERP", "SYM04_USDT_PERP"} {
		if !strings.Contains(msg, sym) {
			t.Fatalf("message missing %s:\n%s", sym, msg)
		}
	}
	if strings.Contains(msg, "SYM03_USDT_PERP") {
		t.Fatalf("skipped symbol should not be reported:\n%s", msg)
	}
	// Aggregate is symbol-sorted, so the LONG block precedes the lone SHORT.
	if strings.Index(msg, "SYM00_USDT_PERP") > strings.Index(msg, "SYM04_USDT_PERP") {
		t.Fatalf("signals out of order:\n%s", msg)
	}
}

func TestScannerRunMaxSymbols(t *testing.T) {
	market := &fakeMarket{closes: map[string][]float64{}}
	for i := 0; i < 20; i++ {
		market.closes[fmt.Sprintf("SYM%02d_USDT_PERP", i)] = quietSeries(30)
	}

	cfg := testScannerCfg()
	cfg.MaxSymbols = 5
	notifier := &recordingNotifier{}
	s := New(zerolog.Nop(), market, cfg, config.Notify{}, notifier)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Scanned != 5 {
		t.Fatalf("expected universe truncated to 5, got %d", summary.Scanned)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no messages without signals, got %v", notifier.messages)
	}
}

func TestScannerRunUniverseFailure(t *testing.T) {
	s := New(zerolog.Nop(), failingUniverse{}, testScannerCfg(), config.Notify{}, &recordingNotifier{})
	if _, err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the universe fetch fails")
	}
}

type failingUniverse struct{}

func (failingUniverse) Closes(context.Context, string, int) ([]float64, error) {
	return nil, fmt.Errorf("unreachable")
}

func (failingUniverse) Symbols(context.Context) ([]string, error) {
	return nil, fmt.Errorf("tickers endpoint down")
}
