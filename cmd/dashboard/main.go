package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"VolumeBreakout/internal/collector"
	"VolumeBreakout/internal/config"
	"VolumeBreakout/internal/dashboard"
	"VolumeBreakout/internal/logger"
	"VolumeBreakout/internal/notifier"
	"VolumeBreakout/internal/runner"
	"VolumeBreakout/internal/scheduler"
	"VolumeBreakout/internal/session"
	"VolumeBreakout/internal/symbols"
)

// app bundles the components shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	clock  *scheduler.MarketClock
	store  *symbols.Store
	runner *runner.Runner
}

func setup(cmd *cli.Command) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Bool("mock") {
		cfg.Provider.Mock = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	clock, err := scheduler.NewMarketClock(cfg.Market.Timezone, cfg.Market.Sessions, cfg.Market.DailyClose)
	if err != nil {
		return nil, fmt.Errorf("market clock: %w", err)
	}

	var fetcher collector.Fetcher
	if cfg.Provider.Mock {
		fetcher = &collector.MockFetcher{}
	} else {
		fetcher = collector.NewTradingViewFetcher(cfg.Provider.ScannerURL, cfg.Provider.WSURL,
			cfg.Provider.ScannerTimeout, cfg.Provider.WSTimeout, cfg.Proxy)
	}
	lg.Info("data source", zap.String("provider", fetcher.Name()))

	col := collector.NewCollector(fetcher, cfg.Provider.ScannerBatchSize, lg.Logger)
	return &app{
		cfg:    cfg,
		log:    lg,
		clock:  clock,
		store:  symbols.NewStore(cfg.Symbols.File, cfg.Symbols.DefaultExchange, cfg.Symbols.Defaults),
		runner: runner.New(col, cfg.Averages.HistoryBars, cfg.Warmup(), clock.Location, lg.Logger),
	}, nil
}

func (a *app) loadSymbols() []string {
	syms, err := a.store.Load()
	if err != nil {
		a.log.Warn("symbols file unreadable, using defaults", zap.Error(err))
	}
	a.log.Info("symbols loaded", zap.Int("count", len(syms)), zap.String("path", a.store.Path))
	return syms
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()
	cfg := a.cfg

	st := session.New(cfg.Session.MaxErrors)
	st.SetSymbols(a.loadSymbols())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := dashboard.New(cfg.Server.Addr, a.store, st, a.runner, dashboard.Options{
		LiveWorkers:     cfg.Live.Workers,
		BackfillDays:    cfg.Backfill.DefaultDays,
		BackfillWorkers: cfg.Backfill.DefaultWorkers,
		ChartBars:       cfg.Averages.HistoryBars,
		Location:        a.clock.Location,
	}, a.log.Logger)
	if err != nil {
		return fmt.Errorf("init dashboard: %w", err)
	}
	srv.Start()

	var sender notifier.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, a.log.Logger)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, a.clock, a.runner, st, sender, cfg.Live.Workers, a.log.Logger)
	if err := sched.RegisterAll(cfg.Live.AutoRefresh, cfg.Live.ScanInterval); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	}

	a.log.Info("volume breakout dashboard running",
		zap.String("addr", cfg.Server.Addr),
		zap.Bool("auto_refresh", cfg.Live.AutoRefresh))
	<-ctx.Done()

	a.log.Info("shutdown signal received, stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("dashboard shutdown", zap.Error(err))
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "volumebreakout",
		Usage: "Volume breakout dashboard for SET equities",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Use generated market data instead of TradingView",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the dashboard, scheduled refreshes and Telegram reports",
				Action: serveAction,
			},
			{
				Name:  "backfill",
				Usage: "Run one backfill and print the daily summary",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Usage:   "Trading days to evaluate (7-120)",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent history fetches (1-8)",
					},
					&cli.StringFlag{
						Name:    "symbols",
						Aliases: []string{"s"},
						Usage:   "Comma separated symbols overriding the symbols file",
					},
				},
				Action: backfillAction,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
