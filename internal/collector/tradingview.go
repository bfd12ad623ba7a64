package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"VolumeBreakout/internal/model"
)

const (
	tvOrigin    = "https://www.tradingview.com"
	tvUserAgent = "Mozilla/5.0"
)

var scannerColumns = []string{"name", "close", "change", "volume"}

// TradingViewFetcher implements Fetcher using the public TradingView scanner
// endpoint for quotes and the chart websocket for daily bars.
type TradingViewFetcher struct {
	ScannerURL string
	WSURL      string
	WSTimeout  time.Duration
	Client     *http.Client
	Dialer     *websocket.Dialer
}

// NewTradingViewFetcher creates a fetcher with optional proxy support.
func NewTradingViewFetcher(scannerURL, wsURL string, scannerTimeout, wsTimeout time.Duration, proxyURL string) *TradingViewFetcher {
	transport := &http.Transport{}
	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
			dialer.Proxy = http.ProxyURL(u)
		}
	}
	return &TradingViewFetcher{
		ScannerURL: scannerURL,
		WSURL:      wsURL,
		WSTimeout:  wsTimeout,
		Client: &http.Client{
			Timeout:   scannerTimeout,
			Transport: transport,
		},
		Dialer: dialer,
	}
}

func (f *TradingViewFetcher) Name() string { return "tradingview" }

type scanRequest struct {
	Filter  []any `json:"filter"`
	Symbols struct {
		Query struct {
			Types []string `json:"types"`
		} `json:"query"`
		Tickers []string `json:"tickers"`
	} `json:"symbols"`
	Columns []string          `json:"columns"`
	Options map[string]string `json:"options"`
	Sort    map[string]string `json:"sort"`
	Range   [2]int            `json:"range"`
}

type scanResponse struct {
	Data []struct {
		S string `json:"s"`
		D []any  `json:"d"`
	} `json:"data"`
}

// FetchQuotes issues one scanner request for the given symbols.
func (f *TradingViewFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.Snapshot, error) {
	if len(symbols) == 0 {
		return map[string]model.Snapshot{}, nil
	}

	reqBody := scanRequest{
		Filter:  []any{},
		Columns: scannerColumns,
		Options: map[string]string{"lang": "en"},
		Sort:    map[string]string{"sortBy": "name", "sortOrder": "asc"},
		Range:   [2]int{0, len(symbols) - 1},
	}
	reqBody.Symbols.Query.Types = []string{}
	reqBody.Symbols.Tickers = symbols

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal scan request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.ScannerURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", tvOrigin)
	req.Header.Set("User-Agent", tvUserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("tradingview scan: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("tradingview scan: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tradingview read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tradingview scan: status %d, body: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var decoded scanResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("tradingview decode: %w", err)
	}

	now := time.Now()
	out := make(map[string]model.Snapshot, len(decoded.Data))
	for _, row := range decoded.Data {
		sym := strings.ToUpper(strings.TrimSpace(row.S))
		if sym == "" {
			continue
		}
		cols := make(map[string]any, len(scannerColumns))
		for i := 0; i < len(scannerColumns) && i < len(row.D); i++ {
			cols[scannerColumns[i]] = row.D[i]
		}
		volume, ok := toFloat(cols["volume"])
		if !ok {
			continue
		}
		snap := model.Snapshot{Symbol: sym, Name: sym, Time: now, Volume: volume}
		if name, ok := cols["name"].(string); ok && name != "" {
			snap.Name = name
		}
		snap.Price, _ = toFloat(cols["close"])
		snap.ChangePct, _ = toFloat(cols["change"])
		out[sym] = snap
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
