package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"VolumeBreakout/internal/notifier"
	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/symbols"
)

func backfillAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	days := int(cmd.Int("days"))
	if days == 0 {
		days = a.cfg.Backfill.DefaultDays
	}
	workers := int(cmd.Int("workers"))
	if workers == 0 {
		workers = a.cfg.Backfill.DefaultWorkers
	}
	if days < 7 || days > 120 {
		return fmt.Errorf("--days must be between 7 and 120, got %d", days)
	}
	if workers < 1 || workers > 8 {
		return fmt.Errorf("--workers must be between 1 and 8, got %d", workers)
	}

	syms := a.loadSymbols()
	if raw := cmd.String("symbols"); raw != "" {
		syms = symbols.Normalize(symbols.Parse(raw), a.cfg.Symbols.DefaultExchange)
	}
	if len(syms) == 0 {
		return fmt.Errorf("no symbols to backfill")
	}

	bar := progressbar.NewOptions(len(syms),
		progressbar.OptionSetDescription(fmt.Sprintf("backfill %dd", days)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	res := a.runner.Backfill(ctx, syms, days, workers, func(done, _ int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()

	a.log.Info("backfill complete",
		zap.String("run_id", res.RunID),
		zap.Int("events", len(res.Events)),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))

	printBackfill(res)
	return nil
}

func printBackfill(res *runner.BackfillResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATE\tTOTAL\tBREAK\tN/A\tBREAK%\t")
	for _, s := range runner.Summarize(res.Events) {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t\n", s.Date, s.Total, s.Breaks, s.Insufficient, s.BreakRatioPct)
	}
	_ = w.Flush()

	breaks := runner.BreakDetails(res.Events)
	if len(breaks) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "DATE\tSYMBOL\tVOLUME\tAVG5\tRATIO5\t")
		for _, ev := range breaks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", ev.Date.Format("2006-01-02"), ev.Symbol,
				notifier.FormatVolume(ev.VolToday), notifier.FormatOptVolume(ev.Avg5), notifier.FormatRatio(ev.Ratio))
		}
		_ = w.Flush()
	}

	if len(res.Errors) > 0 {
		fmt.Println()
		fmt.Print(notifier.FormatErrorSummary(res.Errors, 0, 20))
	}
}
