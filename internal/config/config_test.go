package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "scanner-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.PrettyLog {
		t.Fatalf("expected pretty_log disabled in test config")
	}
	if cfg.Market.BaseURL != "https://api.pionex.com" {
		t.Fatalf("unexpected Market.BaseURL: %s", cfg.Market.BaseURL)
	}
	if cfg.Market.RequestDelayMs != 250 {
		t.Fatalf("unexpected request delay: %d", cfg.Market.RequestDelayMs)
	}
	if cfg.Market.MaxRetries != 4 {
		t.Fatalf("unexpected max retries: %d", cfg.Market.MaxRetries)
	}
	if cfg.Market.BackoffCapRateLimitSecs != 60 {
		t.Fatalf("unexpected rate-limit backoff cap: %d", cfg.Market.BackoffCapRateLimitSecs)
	}
	if cfg.Scanner.BatchSize != 30 || cfg.Scanner.Workers != 10 {
		t.Fatalf("unexpected pool geometry: %+v", cfg.Scanner)
	}
	if cfg.Scanner.RSIPeriod != 14 || cfg.Scanner.VolWindow != 20 {
		t.Fatalf("unexpected indicator windows: %+v", cfg.Scanner)
	}
	if cfg.Scanner.RSIOversold != 30 || cfg.Scanner.RSIOverbought != 70 {
		t.Fatalf("unexpected RSI thresholds: %+v", cfg.Scanner)
	}
	if cfg.Scanner.MaxSymbols != 65 {
		t.Fatalf("unexpected max symbols: %d", cfg.Scanner.MaxSymbols)
	}
	if cfg.Grid.TopCandidates != 30 {
		t.Fatalf("unexpected top candidates: %d", cfg.Grid.TopCandidates)
	}
	if cfg.Grid.TrendShortWindow != 6 || cfg.Grid.TrendLongWindow != 24 {
		t.Fatalf("unexpected trend windows: %+v", cfg.Grid)
	}
	if len(cfg.Grid.ExcludeBases) != 1 || cfg.Grid.ExcludeBases[0] != "HYPE" {
		t.Fatalf("unexpected exclude bases: %+v", cfg.Grid.ExcludeBases)
	}
	if cfg.Notify.Transport != "telegram" {
		t.Fatalf("unexpected transport: %s", cfg.Notify.Transport)
	}
	if cfg.Notify.MaxMessageLen != 4000 || cfg.Notify.MaxSignalsPerMessage != 25 {
		t.Fatalf("unexpected message bounds: %+v", cfg.Notify)
	}
	if cfg.Notify.Telegram.ChatID != "12345" {
		t.Fatalf("unexpected telegram chat id: %s", cfg.Notify.Telegram.ChatID)
	}
	if cfg.Notify.Slack.Channel != "#scan" {
		t.Fatalf("unexpected slack channel: %s", cfg.Notify.Slack.Channel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if again.App != cfg.App || again.Market != cfg.Market {
		t.Fatalf("app/market round trip mismatch: %+v vs %+v", again, cfg)
	}
	if again.Scanner != cfg.Scanner || again.Notify != cfg.Notify {
		t.Fatalf("scanner/notify round trip mismatch: %+v vs %+v", again, cfg)
	}
	if len(again.Grid.ExcludeBases) != len(cfg.Grid.ExcludeBases) {
		t.Fatalf("grid exclusions lost in round trip: %+v", again.Grid)
	}
}

func TestSaveNil(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "nil.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
