package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PatternScope/internal/chart"
	"PatternScope/internal/collector"
	"PatternScope/internal/metrics"
	"PatternScope/internal/model"
	"PatternScope/internal/notifier"
	"PatternScope/internal/pattern"
	"PatternScope/internal/recorder"
	"PatternScope/internal/trader"
)

// Sender delivers a message, retrying on failure.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps are the components a Scheduler drives. Notifier and Trader may be nil.
type Deps struct {
	Collector *collector.Collector
	Symbols   []string
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Store     *chart.Store
	Trader    *trader.Trader
}

// Scheduler runs periodic scans and answers chat commands.
type Scheduler struct {
	Cron *cron.Cron
	Deps
	Ctx context.Context

	mu         sync.Mutex
	lastSignal map[string]time.Time // bar time of the last notified signal per symbol
	failing    map[string]bool
}

// NewScheduler creates a new Scheduler. When d.Trader is set its orders are
// counted and recorded.
func NewScheduler(ctx context.Context, d Deps) *Scheduler {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Health == nil {
		d.Health = metrics.NewHealthStatus()
	}
	if d.Store == nil {
		d.Store = chart.NewStore()
	}
	s := &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))),
		),
		Deps:       d,
		Ctx:        ctx,
		lastSignal: make(map[string]time.Time),
		failing:    make(map[string]bool),
	}
	if d.Trader != nil {
		d.Trader.OnOrder = s.observeOrder
	}
	return s
}

// Register schedules a scan of every symbol on spec (cron with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scanAll); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow scans every symbol immediately.
func (s *Scheduler) RunNow() {
	s.scanAll()
}

func (s *Scheduler) scanAll() {
	log.Printf("[INFO] scanning %d symbols", len(s.Symbols))
	for _, sym := range s.Symbols {
		if s.Ctx.Err() != nil {
			return
		}
		a, err := s.scan(sym)
		if err != nil {
			continue
		}
		s.maybeNotify(a)
	}
}

// scan collects and labels one symbol, then publishes the result to the chart
// store, the recorder and the metrics.
func (s *Scheduler) scan(symbol string) (*model.Analysis, error) {
	start := time.Now()
	a, err := s.Collector.Collect(s.Ctx, symbol)
	if err != nil {
		log.Printf("[ERROR] scan %s: %v", symbol, err)
		s.Metrics.ScanErrorsTotal.WithLabelValues(symbol).Inc()
		s.Health.Record(symbol, err)
		s.markFailing(symbol, err)
		return nil, err
	}
	s.Metrics.ObserveAnalysis(a, time.Since(start))
	s.Health.Record(symbol, nil)
	s.markFailing(symbol, nil)
	s.Store.Put(a)
	if err := s.Recorder.RecordAnalysis(a); err != nil {
		log.Printf("[ERROR] record analysis %s: %v", symbol, err)
	}
	log.Printf("[INFO] %s: %d bars labelled in %v", symbol, len(a.Series), time.Since(start).Round(time.Millisecond))
	return a, nil
}

// markFailing notifies on the first failure of a symbol and on its recovery.
func (s *Scheduler) markFailing(symbol string, err error) {
	s.mu.Lock()
	was := s.failing[symbol]
	s.failing[symbol] = err != nil
	s.mu.Unlock()

	switch {
	case err != nil && !was:
		s.trySend(notifier.FormatScanError(symbol, err))
	case err == nil && was:
		s.trySend(fmt.Sprintf("✅ %s scans recovered", symbol))
	}
}

// maybeNotify sends a signal when the latest evaluable bar carries a pattern
// that has not been reported yet.
func (s *Scheduler) maybeNotify(a *model.Analysis) {
	idx := pattern.LastEvaluable(len(a.Series))
	if len(a.HitsAt(idx)) == 0 {
		return
	}
	barTime := a.Series[idx].Time

	s.mu.Lock()
	if last, ok := s.lastSignal[a.Symbol]; ok && !barTime.After(last) {
		s.mu.Unlock()
		return
	}
	s.lastSignal[a.Symbol] = barTime
	s.mu.Unlock()

	s.trySend(notifier.FormatSignal(a))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Trader != nil)
	}
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch cmd {
	case "/scan":
		var replies []string
		for _, sym := range s.targets(args) {
			a, err := s.scan(sym)
			if err != nil {
				replies = append(replies, notifier.FormatScanError(sym, err))
				continue
			}
			replies = append(replies, notifier.FormatSummary(a))
		}
		return strings.Join(replies, "\n\n")
	case "/last":
		var replies []string
		for _, sym := range s.targets(args) {
			if a := s.Store.Get(sym); a != nil {
				replies = append(replies, notifier.FormatSummary(a))
			} else {
				replies = append(replies, fmt.Sprintf("No scan for %s yet.", sym))
			}
		}
		return strings.Join(replies, "\n\n")
	case "/symbols":
		return notifier.FormatSymbols(s.Symbols, s.Collector.Timeframe)
	case "/buy", "/sell":
		return s.handleTrade(ctx, strings.TrimPrefix(cmd, "/"), args)
	default:
		return notifier.FormatHelp(s.Trader != nil)
	}
}

func (s *Scheduler) handleTrade(ctx context.Context, action string, args []string) string {
	if s.Trader == nil {
		return "Trading is disabled."
	}
	if len(args) != 2 {
		return fmt.Sprintf("Usage: /%s SYMBOL LOTS", action)
	}
	symbol := strings.ToUpper(args[0])
	lots, err := strconv.ParseFloat(args[1], 64)
	if err != nil || !trader.Positive(lots) {
		return fmt.Sprintf("Invalid lot size %q", args[1])
	}
	typ := model.OrderTypeBuy
	if action == "sell" {
		typ = model.OrderTypeSell
	}
	res, err := s.Trader.PlaceTrade(ctx, symbol, action, lots, nil, nil)
	return notifier.FormatOrder(symbol, typ, lots, res, err)
}

func (s *Scheduler) targets(args []string) []string {
	if len(args) == 0 {
		return s.Symbols
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ToUpper(a)
	}
	return out
}

func (s *Scheduler) observeOrder(req model.OrderRequest, res *model.OrderResult, err error) {
	s.Metrics.ObserveOrder(res)
	if rerr := s.Recorder.RecordOrder(&recorder.OrderEvent{Request: req, Result: res, Err: err, Source: "telegram"}); rerr != nil {
		log.Printf("[ERROR] record order: %v", rerr)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || text == "" {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
