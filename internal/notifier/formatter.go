package notifier

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"VolumeBreakout/internal/model"
)

const (
	HourlyTopN = 20
	DailyTopN  = 30
)

// FormatVolume renders large counts as 1.2M / 3.4K.
func FormatVolume(v float64) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.Abs(v) >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case math.Abs(v) >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatOptVolume renders an optional volume, "-" when undefined.
func FormatOptVolume(o optional.Option[float64]) string {
	if o.IsNone() {
		return "-"
	}
	return FormatVolume(o.Unwrap())
}

// FormatRatio renders an optional ratio with two decimals.
func FormatRatio(o optional.Option[float64]) string {
	if o.IsNone() {
		return "-"
	}
	return fmt.Sprintf("%.2f", o.Unwrap())
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatPct renders a signed percentage.
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// TopBreaks returns up to n break rows sorted by ratio, highest first.
func TopBreaks(rows []model.LiveRow, n int) []model.LiveRow {
	var breaks []model.LiveRow
	for _, r := range rows {
		if r.Event.IsBreak {
			breaks = append(breaks, r)
		}
	}
	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].Event.RatioOr(0) > breaks[j].Event.RatioOr(0)
	})
	if n >= 0 && len(breaks) > n {
		breaks = breaks[:n]
	}
	return breaks
}

func countBreaks(rows []model.LiveRow) int {
	n := 0
	for _, r := range rows {
		if r.Event.IsBreak {
			n++
		}
	}
	return n
}

// FormatHourlyReport formats the in-session hourly breakout report.
func FormatHourlyReport(now time.Time, universe, newBreaks int, rows []model.LiveRow) string {
	var b strings.Builder
	b.WriteString("[Volume Break AVG5] Hourly Report\n")
	b.WriteString(fmt.Sprintf("Time: %s (%s)\n", now.Format("2006-01-02 15:04"), now.Location()))
	b.WriteString("Signal: vol_today > avg5\n")
	b.WriteString(fmt.Sprintf("Universe: %d symbols | Break: %d | New since last report: %d\n\n",
		universe, countBreaks(rows), newBreaks))

	top := TopBreaks(rows, HourlyTopN)
	if len(top) == 0 {
		b.WriteString("Result: 0 symbols\n")
		return b.String()
	}
	b.WriteString("Top by ratio5\n")
	for i, r := range top {
		b.WriteString(fmt.Sprintf("%d) %s  vol=%s  avg5=%s  ratio5=%s  close=%s  chg1D=%s\n",
			i+1, r.Symbol,
			FormatVolume(r.Event.VolToday),
			FormatOptVolume(r.Averages.Avg5),
			FormatRatio(r.Event.Ratio),
			FormatPrice(r.Close),
			FormatPct(r.ChangePct)))
	}
	return b.String()
}

// FormatDailyCloseReport formats the end-of-day breakout table.
func FormatDailyCloseReport(now time.Time, universe int, rows []model.LiveRow) string {
	var b strings.Builder
	b.WriteString("[Volume Break] Daily Close Report\n")
	b.WriteString(fmt.Sprintf("Day: %s Time: %s (%s)\n", now.Format("2006-01-02 (Mon)"), now.Format("15:04"), now.Location()))
	b.WriteString(fmt.Sprintf("Universe: %d symbols | Break AVG5: %d\n\n", universe, countBreaks(rows)))

	top := TopBreaks(rows, DailyTopN)
	if len(top) == 0 {
		b.WriteString("Result: 0 symbols\n")
		return b.String()
	}
	b.WriteString(FormatBreakTable(top))
	return b.String()
}

// FormatBreakTable renders rows as a fixed-width table.
func FormatBreakTable(rows []model.LiveRow) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %9s %7s %7s %7s %7s %6s %8s %8s\n",
		"symbol", "vol_today", "avg5", "avg10", "avg20", "avg50", "ratio5", "close", "chg1D"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-12s %9s %7s %7s %7s %7s %6s %8s %8s\n",
			r.Symbol,
			FormatVolume(r.Event.VolToday),
			FormatOptVolume(r.Averages.Avg5),
			FormatOptVolume(r.Averages.Avg10),
			FormatOptVolume(r.Averages.Avg20),
			FormatOptVolume(r.Averages.Avg50),
			FormatRatio(r.Event.Ratio),
			FormatPrice(r.Close),
			FormatPct(r.ChangePct)))
	}
	return b.String()
}

// FormatErrorSummary lists the most recent errors, newest first.
func FormatErrorSummary(errs []model.ErrorRecord, dropped, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Errors: %d logged", len(errs)))
	if dropped > 0 {
		b.WriteString(fmt.Sprintf(" (%d older evicted)", dropped))
	}
	b.WriteString("\n")
	for i := len(errs) - 1; i >= 0 && len(errs)-i <= limit; i-- {
		e := errs[i]
		b.WriteString(fmt.Sprintf("%s [%s] %s: %s\n", e.Timestamp.Format("01-02 15:04:05"), e.Phase, e.Symbol, e.Message))
	}
	return b.String()
}
