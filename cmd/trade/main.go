package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PatternScope/internal/config"
	"PatternScope/internal/model"
	"PatternScope/internal/notifier"
	"PatternScope/internal/recorder"
	"PatternScope/internal/trader"
)

func main() {
	symbol := flag.String("symbol", "EURUSD", "symbol to trade")
	action := flag.String("action", "", "market order: buy or sell")
	orderType := flag.String("type", "", "pending order: buy_limit, sell_limit, buy_stop, sell_stop, buy_stop_limit, sell_stop_limit")
	price := flag.Float64("price", 0, "trigger price for pending orders")
	lots := flag.Float64("lots", 0.1, "volume in lots")
	sl := flag.Float64("sl", 0, "stop loss price, 0 for none")
	tp := flag.Float64("tp", 0, "take profit price, 0 for none")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if (*action == "") == (*orderType == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -action or -type is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*symbol, *action, *orderType, *price, *lots, *sl, *tp); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(symbol, action, orderType string, price, lots, sl, tp float64) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := cfg.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("open terminal session: %w", err)
	}
	defer func() {
		if err := sess.Close(context.Background()); err != nil {
			log.Printf("[WARN] close terminal session: %v", err)
		}
	}()

	tr := trader.New(sess, trader.Options{
		Deviation:      cfg.Trading.Deviation,
		Magic:          cfg.Trading.Magic,
		Comment:        cfg.Trading.Comment,
		PendingComment: cfg.Trading.PendingComment,
	})
	if rec := openRecorder(cfg.Database.SQLitePath); rec != nil {
		defer rec.Close()
		tr.OnOrder = func(req model.OrderRequest, res *model.OrderResult, err error) {
			if rerr := rec.RecordOrder(&recorder.OrderEvent{Request: req, Result: res, Err: err, Source: "cli"}); rerr != nil {
				log.Printf("[WARN] record order: %v", rerr)
			}
		}
	}

	var (
		res *model.OrderResult
		typ model.OrderType
	)
	if action != "" {
		typ = model.OrderTypeBuy
		if strings.EqualFold(action, "sell") {
			typ = model.OrderTypeSell
		}
		res, err = tr.PlaceTrade(ctx, symbol, action, lots, optional(sl), optional(tp))
	} else {
		typ, err = model.ParseOrderType(orderType)
		if err != nil {
			return err
		}
		res, err = tr.PlacePendingOrder(ctx, symbol, typ, lots, price, optional(sl), optional(tp))
	}

	fmt.Println(notifier.FormatOrder(symbol, typ, lots, res, err))
	return err
}

func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func openRecorder(path string) *recorder.SQLiteRecorder {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("[WARN] create database dir: %v", err)
		return nil
	}
	rec, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] orders will not be recorded: %v", err)
		return nil
	}
	return rec
}
