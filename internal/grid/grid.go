// Package grid implements the grid-scanner variant: discover wide-ranging but
// currently quiet PERP markets and propose grid-bot parameters for them.
package grid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/config"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/indicator"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/market"
	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/notify"
)

// MarketData is the slice of the market client the grid scanner consumes.
type MarketData interface {
	Tickers(ctx context.Context) ([]market.Ticker, error)
	Klines(ctx context.Context, symbol string, limit int) ([]market.Kline, error)
}

// Zone is where the current price sits inside the scanned band.
type Zone int

const (
	ZoneLong Zone = iota
	ZoneNeutral
	ZoneShort
)

func (z Zone) String() string {
	switch z {
	case ZoneLong:
		return "Long"
	case ZoneShort:
		return "Short"
	default:
		return "Neutral"
	}
}

// Pick is one grid-friendly market with proposed bot parameters.
type Pick struct {
	Symbol     string
	Low        float64
	High       float64
	Price      float64
	Zone       Zone
	Grids      int
	SpacingPct float64
	WidthPct   float64
	CycleDays  float64
	TrendRatio float64
}

// Summary is the end-of-run report for one grid scan pass.
type Summary struct {
	Candidates int
	Picks      int
	Messages   int
	Sent       int
	Elapsed    time.Duration
}

// Bases excluded from scanning regardless of configuration: wrapped assets
// shadow their underlying, stables never range usefully, and delisted
// Terra-era tokens still show up in the ticker list.
var excludedBases = []string{
	"WBTC", "WETH", "WSOL", "WBNB",
	"USDT", "USDC", "BUSD", "DAI",
	"LUNA", "LUNC", "USTC",
}

var leveragedSuffixes = []string{"UP", "DOWN", "3L", "3S", "5L", "5S"}

// Scanner discovers candidates and turns them into grid picks.
type Scanner struct {
	log     zerolog.Logger
	market  MarketData
	cfg     config.Grid
	exclude map[string]struct{}
}

// NewScanner applies defaults for zero-valued knobs and merges the configured
// extra exclusions into the builtin set.
func NewScanner(log zerolog.Logger, md MarketData, cfg config.Grid) *Scanner {
	if cfg.QuickLimit <= 0 {
		cfg.QuickLimit = 50
	}
	if cfg.FullLimit <= 0 {
		cfg.FullLimit = 200
	}
	if cfg.TopCandidates <= 0 {
		cfg.TopCandidates = 30
	}
	if cfg.TargetSpacingPct <= 0 {
		cfg.TargetSpacingPct = 0.75
	}
	if cfg.MinSpacingPct <= 0 {
		cfg.MinSpacingPct = 0.35
	}
	if cfg.TrendShortWindow <= 0 {
		cfg.TrendShortWindow = 6
	}
	if cfg.TrendLongWindow <= 0 {
		cfg.TrendLongWindow = 24
	}
	if cfg.TrendMax <= 0 {
		cfg.TrendMax = 0.65
	}
	exclude := make(map[string]struct{}, len(excludedBases)+len(cfg.ExcludeBases))
	for _, base := range excludedBases {
		exclude[base] = struct{}{}
	}
	for _, base := range cfg.ExcludeBases {
		exclude[strings.ToUpper(strings.TrimSpace(base))] = struct{}{}
	}
	return &Scanner{log: log, market: md, cfg: cfg, exclude: exclude}
}

// Tradable reports whether a symbol is worth scanning at all.
func (s *Scanner) Tradable(symbol string) bool {
	base := strings.Split(strings.ToUpper(symbol), "_")[0]
	if base == "" {
		return false
	}
	if _, ok := s.exclude[base]; ok {
		return false
	}
	for _, suffix := range leveragedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return false
		}
	}
	return true
}

type candidate struct {
	symbol   string
	widthPct float64
	volume   float64
	score    float64
}

// Discover ranks tradable tickers by recent range width relative to traded
// volume and returns the best symbols for full analysis. A failed quick fetch
// just drops that candidate.
func (s *Scanner) Discover(ctx context.Context) ([]string, error) {
	tickers, err := s.market.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tickers: %w", err)
	}

	var candidates []candidate
	for _, tk := range tickers {
		if tk.Price < s.cfg.PriceMin || tk.Volume < s.cfg.VolumeMin || !s.Tradable(tk.Symbol) {
			continue
		}
		klines, err := s.market.Klines(ctx, tk.Symbol, s.cfg.QuickLimit)
		if err != nil {
			s.log.Debug().Err(err).Str("symbol", tk.Symbol).Msg("quick fetch failed, dropping candidate")
			continue
		}
		lo, hi := bandBounds(klines)
		if hi <= lo || tk.Price <= 0 {
			continue
		}
		widthPct := (hi - lo) / tk.Price * 100
		score := widthPct / math.Max(1, math.Log10(tk.Volume))
		candidates = append(candidates, candidate{symbol: tk.Symbol, widthPct: widthPct, volume: tk.Volume, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > s.cfg.TopCandidates {
		candidates = candidates[:s.cfg.TopCandidates]
	}
	symbols := make([]string, len(candidates))
	for i, cand := range candidates {
		symbols[i] = cand.symbol
	}
	return symbols, nil
}

// Analyze proposes grid parameters for one symbol. A nil pick means the
// market is not grid-friendly right now; an error means it could not be read.
func (s *Scanner) Analyze(ctx context.Context, symbol string) (*Pick, error) {
	klines, err := s.market.Klines(ctx, symbol, s.cfg.FullLimit)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("no klines for %s", symbol)
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	lo, hi := bandBounds(klines)
	band := hi - lo
	now := closes[len(closes)-1]
	if band <= 0 || now <= 0 {
		return nil, nil
	}

	pos := (now - lo) / band
	if pos < 0.05 || pos > 0.95 {
		// Price pinned to a band edge: likely breaking out, not ranging.
		return nil, nil
	}
	zone := ZoneNeutral
	switch {
	case pos < 0.25:
		zone = ZoneLong
	case pos > 0.75:
		zone = ZoneShort
	}

	ratio, err := indicator.TrendRatio(closes, s.cfg.TrendShortWindow, s.cfg.TrendLongWindow)
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			return nil, nil
		}
		return nil, err
	}
	if ratio > s.cfg.TrendMax {
		return nil, nil
	}

	widthPct := band / now * 100
	spacing := math.Max(s.cfg.MinSpacingPct, s.cfg.TargetSpacingPct)
	grids := int(widthPct / spacing)
	if grids < 2 {
		grids = 2
	}
	cycle := float64(grids) * spacing / widthPct * 2

	return &Pick{
		Symbol:     symbol,
		Low:        lo,
		High:       hi,
		Price:      now,
		Zone:       zone,
		Grids:      grids,
		SpacingPct: spacing,
		WidthPct:   widthPct,
		CycleDays:  math.Round(cycle*10) / 10,
		TrendRatio: ratio,
	}, nil
}

// Run performs one discover-analyze-notify pass.
func (s *Scanner) Run(ctx context.Context, notifier notify.Notifier, notifyCfg config.Notify) (Summary, error) {
	start := time.Now()

	symbols, err := s.Discover(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.log.Info().Int("candidates", len(symbols)).Msg("grid scan started")

	var blocks []string
	picks := 0
	for _, symbol := range symbols {
		pick, err := s.Analyze(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("analysis failed, skipping symbol")
			continue
		}
		if pick == nil {
			continue
		}
		picks++
		blocks = append(blocks, Render(*pick))
	}

	messages := notify.ChunkBlocks(blocks, notifyCfg.MaxMessageLen)
	pause := time.Duration(notifyCfg.PauseMs) * time.Millisecond
	sent := 0
	if len(messages) > 0 {
		sent = notify.Deliver(ctx, s.log, notifier, messages, pause)
	} else {
		s.log.Info().Msg("no grid-friendly markets this pass")
	}

	summary := Summary{
		Candidates: len(symbols),
		Picks:      picks,
		Messages:   len(messages),
		Sent:       sent,
		Elapsed:    time.Since(start),
	}
	s.log.Info().
		Int("candidates", summary.Candidates).
		Int("picks", summary.Picks).
		Int("messages_sent", summary.Sent).
		Dur("elapsed", summary.Elapsed).
		Msg("grid scan complete")
	return summary, nil
}

// Render formats a pick as one markdown notification block.
func Render(p Pick) string {
	return fmt.Sprintf("*%s*\n📊 Range: `%s – %s`\n%s\n💰 Grids: `%d` | 📏 Spacing: `%.2f%%`\n🌪 Volatility: `%.1f%%` | ⏱ Cycle: `%.1f days`\n",
		p.Symbol,
		notify.FormatPrice(p.Low), notify.FormatPrice(p.High),
		zoneLine(p.Zone),
		p.Grids, p.SpacingPct,
		p.WidthPct, p.CycleDays,
	)
}

func zoneLine(z Zone) string {
	switch z {
	case ZoneLong:
		return "📈 Entry Zone: 🟢 Long"
	case ZoneShort:
		return "📉 Entry Zone: 🔴 Short"
	default:
		return "🔁 Entry Zone: ⚪️ Neutral"
	}
}

func bandBounds(klines []market.Kline) (lo, hi float64) {
	if len(klines) == 0 {
		return 0, 0
	}
	lo, hi = klines[0].Low, klines[0].High
	for _, k := range klines[1:] {
		if k.Low < lo {
			lo = k.Low
		}
		if k.High > hi {
			hi = k.High
		}
	}
	return lo, hi
}
