package runner

import (
	"context"
	"fmt"
	"math"

	"VolumeBreakout/internal/calculator"
	"VolumeBreakout/internal/model"
)

// SMAStatus compares the latest close with one close SMA.
type SMAStatus struct {
	Window int      `json:"window"`
	SMA    *float64 `json:"sma"`
	Status string   `json:"status"`
}

// ChartPoint is one bar with its close SMAs and volume averages.
type ChartPoint struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume float64  `json:"volume"`
	SMA5   *float64 `json:"sma5"`
	SMA10  *float64 `json:"sma10"`
	SMA20  *float64 `json:"sma20"`
	SMA50  *float64 `json:"sma50"`
	VAvg5  *float64 `json:"vavg5"`
	VAvg10 *float64 `json:"vavg10"`
	VAvg20 *float64 `json:"vavg20"`
	VAvg50 *float64 `json:"vavg50"`
}

// ChartData is everything the chart view renders for one symbol.
type ChartData struct {
	Symbol string       `json:"symbol"`
	Points []ChartPoint `json:"points"`
	Status []SMAStatus  `json:"status"`
}

// Chart fetches bars for symbol and derives close SMAs, volume averages and
// the latest close position relative to each SMA. Extra bars are fetched so
// SMA50 is defined from the first displayed point when history allows.
func (r *Runner) Chart(ctx context.Context, symbol string, bars int) (*ChartData, error) {
	if bars <= 0 {
		return nil, fmt.Errorf("bars must be > 0")
	}
	hist, err := r.history(ctx, symbol, bars+r.WarmupBars)
	if err != nil {
		return nil, err
	}

	closes := calculator.ExtractCloses(hist)
	smas := make(map[int][]*float64, len(model.Windows))
	for _, w := range model.Windows {
		series := calculator.SMASeries(closes, w)
		ptrs := make([]*float64, len(series))
		for i, v := range series {
			ptrs[i] = model.Ptr(v)
		}
		smas[w] = ptrs
	}
	vols := calculator.VolumeAverages(hist)

	start := max(0, len(hist)-bars)
	data := &ChartData{Symbol: symbol}
	for i := start; i < len(hist); i++ {
		b := hist[i]
		data.Points = append(data.Points, ChartPoint{
			Date:   b.Date(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			SMA5:   smas[5][i],
			SMA10:  smas[10][i],
			SMA20:  smas[20][i],
			SMA50:  smas[50][i],
			VAvg5:  model.Ptr(vols[i].Avg5),
			VAvg10: model.Ptr(vols[i].Avg10),
			VAvg20: model.Ptr(vols[i].Avg20),
			VAvg50: model.Ptr(vols[i].Avg50),
		})
	}

	last := len(hist) - 1
	for _, w := range model.Windows {
		st := SMAStatus{Window: w, SMA: smas[w][last], Status: "n/a"}
		if st.SMA != nil {
			st.Status = closeStatus(closes[last], *st.SMA)
		}
		data.Status = append(data.Status, st)
	}
	return data, nil
}

func closeStatus(close, sma float64) string {
	switch {
	case math.Abs(close-sma) < 1e-9:
		return "At SMA"
	case close > sma:
		return "Above"
	default:
		return "Below"
	}
}
