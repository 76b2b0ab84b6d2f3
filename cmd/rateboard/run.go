package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"RateBoard/internal/collector"
	"RateBoard/internal/config"
	"RateBoard/internal/dashboard"
	"RateBoard/internal/notifier"
	"RateBoard/internal/scheduler"
	"RateBoard/internal/settings"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduler and the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		return run(cfg)
	},
}

func run(cfg *config.Config) error {
	log.Println("[INFO] RateBoard starting...")

	// Init fetchers
	binance := collector.NewBinanceFetcher(cfg.Sources.BinanceBaseURL, cfg.History.Days, cfg.Proxy)
	cbr := collector.NewCBRFetcher(cfg.Sources.CBRBaseURL, cfg.History.Days, cfg.Proxy)
	history := []collector.HistoryFetcher{binance, cbr}
	if cfg.Sources.RatesAPIURL != "" {
		history = append(history, collector.NewRatesAPIFetcher(cfg.Sources.RatesAPIURL, cfg.Sources.RatesAPIKey, cfg.Proxy))
	}
	spot := []collector.SpotFetcher{binance, collector.NewMOEXFetcher(cfg.Sources.MOEXBaseURL, cfg.Proxy)}
	for _, f := range history {
		log.Printf("[INFO] history source: %s", f.Name())
	}

	// Init collector
	store := collector.NewStore()
	col := collector.NewCollector(cfg.Tracked(), history, spot, collector.NewSnapshotFetcher(cfg.Sources.SnapshotFile), store)
	col.Synthesize = cfg.Synthesize()

	// Init settings
	st, err := settings.Open(cfg.Settings.SQLitePath, cfg.Settings.FilePath)
	if err != nil {
		log.Printf("[WARN] init settings store failed, using memory: %v", err)
		st = settings.NewMemoryStore()
	}
	defer st.Close()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	views := dashboard.NewBuilder(store, cfg.Synthesize())

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, store, views, tn, tn, st, col.Codes())
	if err := sched.RegisterAll(cfg.Schedule.SpotCron, cfg.Schedule.HistoryCron, cfg.Schedule.DigestCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.RefreshNow()
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")
	log.Println("[INFO] RateBoard is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	return nil
}
