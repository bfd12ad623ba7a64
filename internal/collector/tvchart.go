package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"VolumeBreakout/internal/model"
)

// FetchDailyBars opens a chart session and collects daily bars for symbol.
func (f *TradingViewFetcher) FetchDailyBars(ctx context.Context, symbol string, bars int) ([]model.DailyBar, error) {
	return f.FetchBars(ctx, symbol, "D", bars)
}

// FetchBars collects bars at resolution "D" or "W" over the chart websocket.
// The whole exchange is bounded by WSTimeout.
func (f *TradingViewFetcher) FetchBars(ctx context.Context, symbol, resolution string, bars int) ([]model.DailyBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || !strings.Contains(symbol, ":") {
		return nil, fmt.Errorf("%w: %q (expected like SET:ADVANC)", ErrInvalidSymbol, symbol)
	}
	resolution = strings.ToUpper(strings.TrimSpace(resolution))
	if resolution != "D" && resolution != "W" {
		return nil, fmt.Errorf("unsupported resolution %q (use D or W)", resolution)
	}
	if bars <= 0 {
		return nil, fmt.Errorf("bars must be > 0")
	}

	if f.WSTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.WSTimeout)
		defer cancel()
	}

	header := http.Header{}
	header.Set("Origin", tvOrigin)
	header.Set("User-Agent", tvUserAgent)
	conn, _, err := f.Dialer.DialContext(ctx, f.WSURL, header)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("tradingview dial %s: %w", symbol, ErrTimeout)
		}
		return nil, fmt.Errorf("tradingview dial %s: %w", symbol, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	chartSession := randomSession("cs_")
	quoteSession := randomSession("qs_")
	symbolSpec := fmt.Sprintf(`={"symbol":%q,"adjustment":"splits","session":"regular"}`, symbol)
	msgs := []tvMessage{
		{M: "set_auth_token", P: []any{"unauthorized_user_token"}},
		{M: "chart_create_session", P: []any{chartSession, ""}},
		{M: "quote_create_session", P: []any{quoteSession}},
		{M: "quote_set_fields", P: []any{quoteSession, "lp", "ch", "chp", "volume", "short_name", "exchange", "description", "type"}},
		{M: "quote_add_symbols", P: []any{quoteSession, symbol}},
		{M: "resolve_symbol", P: []any{chartSession, "symbol_1", symbolSpec}},
		{M: "create_series", P: []any{chartSession, "s1", "s1", "symbol_1", resolution, bars}},
		{M: "switch_timezone", P: []any{chartSession, "Etc/UTC"}},
	}
	for _, m := range msgs {
		frame, err := packMessage(m)
		if err != nil {
			return nil, err
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return nil, fmt.Errorf("tradingview send %s: %w", m.M, err)
		}
	}

	collected := make(map[int64]model.DailyBar)
	completed := false
	for !completed || len(collected) == 0 {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return nil, fmt.Errorf("fetching %s (%s, bars=%d): %w", symbol, resolution, bars, ErrTimeout)
			}
			return nil, fmt.Errorf("tradingview read %s: %w", symbol, err)
		}
		for _, frame := range splitFrames(string(raw)) {
			if strings.HasPrefix(frame, "~h~") {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(wrapFrame(frame))); err != nil {
					return nil, fmt.Errorf("tradingview heartbeat: %w", err)
				}
				continue
			}
			var msg struct {
				M string            `json:"m"`
				P []json.RawMessage `json:"p"`
			}
			if err := json.Unmarshal([]byte(frame), &msg); err != nil {
				continue
			}
			switch msg.M {
			case "timescale_update":
				if len(msg.P) > 1 {
					for _, b := range parseSeries(msg.P[1]) {
						b.Symbol = symbol
						collected[b.Time.Unix()] = b
					}
				}
			case "series_completed":
				completed = true
			case "symbol_error":
				return nil, fmt.Errorf("%w: %s rejected by provider", ErrInvalidSymbol, symbol)
			case "series_error", "critical_error", "protocol_error":
				return nil, fmt.Errorf("tradingview %s for %s", msg.M, symbol)
			}
		}
	}

	out := make([]model.DailyBar, 0, len(collected))
	for _, b := range collected {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

type tvMessage struct {
	M string `json:"m"`
	P []any  `json:"p"`
}

func packMessage(m tvMessage) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.M, err)
	}
	return []byte(wrapFrame(string(payload))), nil
}

func wrapFrame(payload string) string {
	return "~m~" + strconv.Itoa(len(payload)) + "~m~" + payload
}

// splitFrames splits a raw websocket message into its ~m~len~m~ payloads.
// Heartbeat payloads are returned as-is starting with ~h~.
func splitFrames(raw string) []string {
	var frames []string
	i := 0
	for i < len(raw) {
		if strings.HasPrefix(raw[i:], "~h~") {
			j := strings.Index(raw[i:], "~m~")
			if j == -1 {
				frames = append(frames, raw[i:])
				break
			}
			frames = append(frames, raw[i:i+j])
			i += j
			continue
		}
		if !strings.HasPrefix(raw[i:], "~m~") {
			j := strings.Index(raw[i:], "~m~")
			if j == -1 {
				break
			}
			i += j
			continue
		}
		i += 3
		j := strings.Index(raw[i:], "~m~")
		if j == -1 {
			break
		}
		n, err := strconv.Atoi(raw[i : i+j])
		if err != nil {
			break
		}
		i += j + 3
		end := i + n
		if end > len(raw) {
			end = len(raw)
		}
		frames = append(frames, raw[i:end])
		i = end
	}
	return frames
}

type seriesPayload struct {
	S1 *struct {
		S []struct {
			V []*float64 `json:"v"`
		} `json:"s"`
		T []*float64 `json:"t"`
		O []*float64 `json:"o"`
		H []*float64 `json:"h"`
		L []*float64 `json:"l"`
		C []*float64 `json:"c"`
		V []*float64 `json:"v"`
	} `json:"s1"`
}

// parseSeries reads bars from a timescale_update payload, accepting both the
// row form (s[].v = [t,o,h,l,c,vol]) and the columnar form (t/o/h/l/c/v).
// Bars without a volume are dropped so they never enter the averages.
func parseSeries(raw json.RawMessage) []model.DailyBar {
	var p seriesPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.S1 == nil {
		return nil
	}

	var out []model.DailyBar
	if len(p.S1.S) > 0 {
		for _, row := range p.S1.S {
			if !hasValue(row.V, 5) || row.V[0] == nil {
				continue
			}
			out = append(out, model.DailyBar{
				Time:   time.Unix(int64(*row.V[0]), 0).UTC(),
				Open:   at(row.V, 1),
				High:   at(row.V, 2),
				Low:    at(row.V, 3),
				Close:  at(row.V, 4),
				Volume: at(row.V, 5),
			})
		}
		return out
	}

	for i, t := range p.S1.T {
		if t == nil || !hasValue(p.S1.V, i) {
			continue
		}
		out = append(out, model.DailyBar{
			Time:   time.Unix(int64(*t), 0).UTC(),
			Open:   at(p.S1.O, i),
			High:   at(p.S1.H, i),
			Low:    at(p.S1.L, i),
			Close:  at(p.S1.C, i),
			Volume: at(p.S1.V, i),
		})
	}
	return out
}

func hasValue(vals []*float64, i int) bool {
	return i < len(vals) && vals[i] != nil
}

// at returns vals[i], or 0 when missing or null.
func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func randomSession(prefix string) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 12)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return prefix + string(b)
}
