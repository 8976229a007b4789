package notify

import (
	"fmt"
	"strings"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/signal"
)

const (
	defaultMaxMessageLen = 4000
	defaultMaxSignals    = 25
)

// BuildMessages packs rendered signal lines into messages of at most maxLen
// characters and maxSignals lines each, preserving input order. Headers carry
// a sequential part number; footers carry the part's signal count. The length
// check accounts for the footer so a finalized message never busts maxLen.
func BuildMessages(signals []signal.Signal, maxLen, maxSignals int) []string {
	if len(signals) == 0 {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultMaxMessageLen
	}
	if maxSignals <= 0 {
		maxSignals = defaultMaxSignals
	}

	var out []string
	part := 1
	buf := header(part)
	count := 0
	for _, sig := range signals {
		line := RenderLine(sig)
		if count > 0 && (count >= maxSignals || len(buf)+len(line)+len(footer(count+1)) > maxLen) {
			out = append(out, buf+footer(count))
			part++
			buf = header(part)
			count = 0
		}
		buf += line
		count++
	}
	if count > 0 {
		out = append(out, buf+footer(count))
	}
	return out
}

func header(part int) string {
	return fmt.Sprintf("📊 *RSI Scan — Part %d*\n\n", part)
}

func footer(count int) string {
	return fmt.Sprintf("\n— %d signals", count)
}

// ChunkBlocks joins pre-rendered blocks into messages of at most maxLen
// characters, order preserved. A single block larger than maxLen is emitted
// alone rather than dropped.
func ChunkBlocks(blocks []string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = defaultMaxMessageLen
	}
	var out []string
	var buf string
	for _, block := range blocks {
		piece := block + "\n"
		if buf != "" && len(buf)+len(piece) > maxLen {
			out = append(out, strings.TrimRight(buf, "\n"))
			buf = ""
		}
		buf += piece
	}
	if buf != "" {
		out = append(out, strings.TrimRight(buf, "\n"))
	}
	return out
}

// RenderLine formats one signal as a single markdown report line.
func RenderLine(sig signal.Signal) string {
	marker := "🟢"
	if sig.Zone == signal.ZoneShort {
		marker = "🔴"
	}
	return fmt.Sprintf("%s *%s* %s | RSI %.2f | Vol %.1f%% | %s\n",
		marker, sig.Symbol, sig.Zone, sig.RSI, sig.Volatility, FormatPrice(sig.Price))
}

// FormatPrice picks precision by magnitude so sub-penny tokens stay readable.
func FormatPrice(p float64) string {
	switch {
	case p < 0.1:
		return fmt.Sprintf("$%.8f", p)
	case p < 1:
		return fmt.Sprintf("$%.4f", p)
	default:
		return fmt.Sprintf("$%.2f", p)
	}
}
