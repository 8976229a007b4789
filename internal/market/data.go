package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	tickersPath = "/api/v1/market/tickers"
	klinesPath  = "/api/v1/market/klines"
)

// Ticker is one row of the 24h ticker snapshot, trimmed to the consumed fields.
type Ticker struct {
	Symbol string
	Price  float64 // latest close
	Volume float64 // 24h quote notional
}

// Kline carries the bar fields both scanners read.
type Kline struct {
	High  float64
	Low   float64
	Close float64
}

// apiFloat accepts the provider's mix of quoted and bare numbers.
type apiFloat float64

func (f *apiFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = apiFloat(v)
	return nil
}

type tickerRow struct {
	Symbol string   `json:"symbol"`
	Close  apiFloat `json:"close"`
	Amount apiFloat `json:"amount"`
}

type tickersEnvelope struct {
	Data struct {
		Tickers []tickerRow `json:"tickers"`
	} `json:"data"`
}

// Tickers returns the 24h snapshot for every tradable symbol of the configured market type.
func (c *Client) Tickers(ctx context.Context) ([]Ticker, error) {
	query := url.Values{"type": {c.klineType}}
	body, err := c.get(ctx, tickersPath, query)
	if err != nil {
		return nil, err
	}
	var envelope tickersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	out := make([]Ticker, 0, len(envelope.Data.Tickers))
	for _, row := range envelope.Data.Tickers {
		if row.Symbol == "" {
			continue
		}
		out = append(out, Ticker{Symbol: row.Symbol, Price: float64(row.Close), Volume: float64(row.Amount)})
	}
	return out, nil
}

// Symbols returns the symbol universe, sorted for deterministic batching.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	tickers, err := c.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(tickers))
	for _, tk := range tickers {
		symbols = append(symbols, tk.Symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Klines fetches up to limit recent bars for symbol, oldest first.
func (c *Client) Klines(ctx context.Context, symbol string, limit int) ([]Kline, error) {
	query := url.Values{
		"symbol":   {symbol},
		"interval": {c.klineInterval},
		"limit":    {strconv.Itoa(limit)},
		"type":     {c.klineType},
	}
	body, err := c.get(ctx, klinesPath, query)
	if err != nil {
		return nil, err
	}
	return parseKlines(body)
}

// Closes is the close-price view of Klines.
func (c *Client) Closes(ctx context.Context, symbol string, limit int) ([]float64, error) {
	klines, err := c.Klines(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	return closes, nil
}

// parseKlines handles both payload shapes the provider has served: an object
// carrying a "klines" list, or the list directly under "data". Each row may be
// a field object or a positional [time, open, high, low, close, ...] array.
func parseKlines(body []byte) ([]Kline, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("no klines in payload")
	}

	rows := envelope.Data
	var wrapped struct {
		Klines json.RawMessage `json:"klines"`
	}
	if err := json.Unmarshal(envelope.Data, &wrapped); err == nil && len(wrapped.Klines) > 0 {
		rows = wrapped.Klines
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rows, &items); err != nil {
		return nil, fmt.Errorf("no klines in payload")
	}
	out := make([]Kline, 0, len(items))
	for _, item := range items {
		k, err := parseKlineRow(item)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func parseKlineRow(item json.RawMessage) (Kline, error) {
	var obj struct {
		High  apiFloat `json:"high"`
		Low   apiFloat `json:"low"`
		Close apiFloat `json:"close"`
	}
	if err := json.Unmarshal(item, &obj); err == nil && obj.Close != 0 {
		return Kline{High: float64(obj.High), Low: float64(obj.Low), Close: float64(obj.Close)}, nil
	}
	var arr []apiFloat
	if err := json.Unmarshal(item, &arr); err == nil && len(arr) >= 5 {
		return Kline{High: float64(arr[2]), Low: float64(arr[3]), Close: float64(arr[4])}, nil
	}
	return Kline{}, fmt.Errorf("unrecognized kline row %s", string(item))
}
