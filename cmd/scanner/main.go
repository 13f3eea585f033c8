package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"PatternScope/internal/chart"
	"PatternScope/internal/collector"
	"PatternScope/internal/config"
	"PatternScope/internal/metrics"
	"PatternScope/internal/notifier"
	"PatternScope/internal/recorder"
	"PatternScope/internal/scheduler"
	"PatternScope/internal/terminal"
	"PatternScope/internal/trader"
)

func main() {
	once := flag.Bool("once", false, "scan every symbol once, write charts to -out and exit")
	outDir := flag.String("out", "charts", "chart output directory for -once")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PatternScope scanner starting...")

	if err := run(*once, *outDir); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func run(once bool, outDir string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var (
		fetcher collector.Fetcher
		sess    terminal.Session
	)
	if cfg.Analysis.Source == config.SourceYahoo {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	} else {
		sess, err = cfg.OpenSession(ctx)
		if err != nil {
			return fmt.Errorf("open terminal session: %w", err)
		}
		defer func() {
			if err := sess.Close(context.Background()); err != nil {
				log.Printf("[WARN] close terminal session: %v", err)
			}
		}()
		fetcher = collector.NewTerminalFetcher(sess)
	}
	log.Printf("[INFO] data source: %s, %s x %d bars", fetcher.Name(), cfg.Analysis.Timeframe, cfg.Analysis.Candles)

	col := collector.NewCollector(fetcher, cfg.Analysis.Timeframe, cfg.Analysis.Candles)

	if once {
		return scanOnce(ctx, col, cfg.Analysis.Symbols, outDir)
	}

	rec := openRecorder(cfg.Database.SQLitePath)
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("[WARN] close recorder: %v", err)
		}
	}()

	m := metrics.New()
	health := metrics.NewHealthStatus()
	store := chart.NewStore()

	deps := scheduler.Deps{
		Collector: col,
		Symbols:   cfg.Analysis.Symbols,
		Recorder:  rec,
		Metrics:   m,
		Health:    health,
		Store:     store,
	}

	var tn *notifier.TelegramNotifier
	if cfg.NotifierEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		deps.Notifier = tn
	} else {
		log.Println("[WARN] telegram not configured, notifications disabled")
	}

	if cfg.Trading.Enabled && sess != nil {
		deps.Trader = trader.New(sess, trader.Options{
			Deviation:      cfg.Trading.Deviation,
			Magic:          cfg.Trading.Magic,
			Comment:        cfg.Trading.Comment,
			PendingComment: cfg.Trading.PendingComment,
		})
		log.Println("[INFO] chat trading enabled")
	}

	sched := scheduler.NewScheduler(ctx, deps)
	if err := sched.Register(cfg.Analysis.Cron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	srv := metrics.NewServer(cfg.HTTP.Addr, m, health)
	srv.Handle("/", chart.NewHandler(store))
	srv.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") != "false" {
		go sched.RunNow()
	}

	log.Printf("[INFO] PatternScope is running, charts at http://localhost%s/. Press Ctrl+C to stop.", cfg.HTTP.Addr)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] PatternScope stopped")
	return nil
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[WARN] create database dir failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// scanOnce labels every symbol and writes one chart page per symbol.
func scanOnce(ctx context.Context, col *collector.Collector, symbols []string, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, sym := range symbols {
		a, err := col.Collect(ctx, sym)
		if err != nil {
			log.Printf("[ERROR] scan %s: %v", sym, err)
			continue
		}
		fmt.Println(notifier.FormatSummary(a))

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.html", sym, a.Timeframe))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		err = chart.Render(f, a)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write chart %s: %w", path, err)
		}
		log.Printf("[INFO] chart written: %s", path)
	}
	return nil
}
