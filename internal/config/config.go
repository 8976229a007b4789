// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"log_level"`
	PrettyLog   bool   `yaml:"pretty_log"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Market describes the market-data provider endpoint plus the rate-limit and retry policy
// every outbound request is subject to.
type Market struct {
	BaseURL                 string `yaml:"base_url"`
	KlineInterval           string `yaml:"kline_interval"`
	KlineType               string `yaml:"kline_type"`
	TimeoutMs               int    `yaml:"timeout_ms"`
	RequestDelayMs          int    `yaml:"request_delay_ms"`
	MaxRetries              int    `yaml:"max_retries"`
	BackoffCapRateLimitSecs int    `yaml:"backoff_cap_rate_limit_secs"`
	BackoffCapServerSecs    int    `yaml:"backoff_cap_server_secs"`
}

// Scanner groups the tunables for the RSI batch scan: pool geometry, history
// window lengths, and the signal thresholds.
type Scanner struct {
	BatchSize     int     `yaml:"batch_size"`
	Workers       int     `yaml:"workers"`
	KlineLimit    int     `yaml:"kline_limit"`
	MinHistory    int     `yaml:"min_history"`
	RSIPeriod     int     `yaml:"rsi_period"`
	VolWindow     int     `yaml:"vol_window"`
	VolThreshold  float64 `yaml:"vol_threshold"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	MaxSymbols    int     `yaml:"max_symbols"`
}

// Grid holds the grid-scanner variant settings: candidate discovery floors,
// grid spacing targets, and the trend-ratio quiet filter.
type Grid struct {
	QuickLimit       int      `yaml:"quick_limit"`
	FullLimit        int      `yaml:"full_limit"`
	TopCandidates    int      `yaml:"top_candidates"`
	PriceMin         float64  `yaml:"price_min"`
	VolumeMin        float64  `yaml:"volume_min"`
	TargetSpacingPct float64  `yaml:"target_spacing_pct"`
	MinSpacingPct    float64  `yaml:"min_spacing_pct"`
	TrendShortWindow int      `yaml:"trend_short_window"`
	TrendLongWindow  int      `yaml:"trend_long_window"`
	TrendMax         float64  `yaml:"trend_max"`
	ExcludeBases     []string `yaml:"exclude_bases"`
}

// Telegram identifies the target chat; the bot token comes from the environment.
type Telegram struct {
	ChatID string `yaml:"chat_id"`
}

// Slack identifies the target channel; the API token comes from the environment.
type Slack struct {
	Channel string `yaml:"channel"`
}

// Notify bounds outgoing messages and selects the transport implementation.
type Notify struct {
	Transport            string   `yaml:"transport"`
	MaxMessageLen        int      `yaml:"max_message_len"`
	MaxSignalsPerMessage int      `yaml:"max_signals_per_message"`
	PauseMs              int      `yaml:"pause_ms"`
	Telegram             Telegram `yaml:"telegram"`
	Slack                Slack    `yaml:"slack"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Market  Market  `yaml:"market"`
	Scanner Scanner `yaml:"scanner"`
	Grid    Grid    `yaml:"grid"`
	Notify  Notify  `yaml:"notify"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
