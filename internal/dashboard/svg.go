package dashboard

import (
	"fmt"
	"math"
	"strings"

	"VolumeBreakout/internal/model"
	"VolumeBreakout/internal/runner"
)

const (
	plotWidth    = 960.0
	priceHeight  = 300.0
	volumeHeight = 120.0
	plotGap      = 16.0
)

// plot holds pre-computed SVG geometry for the chart tab.
type plot struct {
	Width     float64
	Height    float64
	VolumeTop float64
	Close     string
	SMAs      []plotLine
	Bars      []plotBar
	VAvg5     string
	PriceMin  float64
	PriceMax  float64
	VolumeMax float64
	FirstDate string
	LastDate  string
}

type plotLine struct {
	Window int
	Points string
}

type plotBar struct {
	X, Y, W, H float64
	Break      bool
}

// buildPlot scales points into an SVG with a price pane above a volume pane.
func buildPlot(points []runner.ChartPoint) *plot {
	if len(points) == 0 {
		return nil
	}
	p := &plot{
		Width:     plotWidth,
		Height:    priceHeight + plotGap + volumeHeight,
		VolumeTop: priceHeight + plotGap,
		PriceMin:  math.Inf(1),
		PriceMax:  math.Inf(-1),
		FirstDate: points[0].Date,
		LastDate:  points[len(points)-1].Date,
	}
	for _, pt := range points {
		p.PriceMin = math.Min(p.PriceMin, pt.Low)
		p.PriceMax = math.Max(p.PriceMax, pt.High)
		p.VolumeMax = math.Max(p.VolumeMax, pt.Volume)
	}
	if p.PriceMax <= p.PriceMin {
		p.PriceMax = p.PriceMin + 1
	}
	if p.VolumeMax <= 0 {
		p.VolumeMax = 1
	}

	step := plotWidth / float64(len(points))
	x := func(i int) float64 { return step*float64(i) + step/2 }
	py := func(v float64) float64 {
		return priceHeight - (v-p.PriceMin)/(p.PriceMax-p.PriceMin)*priceHeight
	}
	vy := func(v float64) float64 {
		return p.VolumeTop + volumeHeight - v/p.VolumeMax*volumeHeight
	}

	closes := make([]float64, len(points))
	for i, pt := range points {
		closes[i] = pt.Close
	}
	p.Close = polyline(closes, x, py)

	for _, w := range model.Windows {
		vals := make([]float64, len(points))
		for i, pt := range points {
			vals[i] = deref(smaAt(pt, w))
		}
		p.SMAs = append(p.SMAs, plotLine{Window: w, Points: polyline(vals, x, py)})
	}

	vavg := make([]float64, len(points))
	for i, pt := range points {
		vavg[i] = deref(pt.VAvg5)
		top := vy(pt.Volume)
		p.Bars = append(p.Bars, plotBar{
			X:     x(i) - step*0.4,
			Y:     top,
			W:     step * 0.8,
			H:     p.VolumeTop + volumeHeight - top,
			Break: pt.VAvg5 != nil && pt.Volume > *pt.VAvg5,
		})
	}
	p.VAvg5 = polyline(vavg, x, vy)
	return p
}

func smaAt(pt runner.ChartPoint, window int) *float64 {
	switch window {
	case 5:
		return pt.SMA5
	case 10:
		return pt.SMA10
	case 20:
		return pt.SMA20
	default:
		return pt.SMA50
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// polyline renders "x,y" pairs, skipping undefined values.
func polyline(vals []float64, x func(int) float64, y func(float64) float64) string {
	var sb strings.Builder
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x(i), y(v))
	}
	return sb.String()
}
