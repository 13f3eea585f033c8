// Package trader routes market and pending orders through a terminal session.
package trader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"

	"PatternScope/internal/model"
	"PatternScope/internal/terminal"
)

var (
	ErrInvalidAction = errors.New("invalid trade action, use 'buy' or 'sell'")
	ErrInvalidOrder  = errors.New("invalid order")
	ErrRejected      = errors.New("order rejected")
)

// RejectError is returned when the terminal answers with a retcode other than done.
type RejectError struct {
	Retcode   int
	Comment   string
	LastError error
}

func (e *RejectError) Error() string {
	if e.LastError != nil {
		return fmt.Sprintf("order rejected: retcode %d (%s): %v", e.Retcode, e.Comment, e.LastError)
	}
	return fmt.Sprintf("order rejected: retcode %d (%s)", e.Retcode, e.Comment)
}

func (e *RejectError) Unwrap() error { return ErrRejected }

// Options are the request fields shared by every order.
type Options struct {
	Deviation      int    // slippage tolerance in points
	Magic          int64  // expert identifier stamped on every order
	Comment        string // comment for market orders
	PendingComment string // comment for pending orders
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Deviation:      10,
		Magic:          234000,
		Comment:        "Trade placed by PatternScope",
		PendingComment: "Pending order placed by PatternScope",
	}
}

// OrderHook observes every request that reached the terminal. res is nil
// when the request failed in transport.
type OrderHook func(req model.OrderRequest, res *model.OrderResult, err error)

// Trader places orders on one session.
type Trader struct {
	Session terminal.Session
	Options Options
	OnOrder OrderHook
}

// New creates a Trader. Zero-valued options fall back to DefaultOptions.
func New(sess terminal.Session, opts Options) *Trader {
	def := DefaultOptions()
	if opts.Deviation == 0 {
		opts.Deviation = def.Deviation
	}
	if opts.Magic == 0 {
		opts.Magic = def.Magic
	}
	if opts.Comment == "" {
		opts.Comment = def.Comment
	}
	if opts.PendingComment == "" {
		opts.PendingComment = def.PendingComment
	}
	return &Trader{Session: sess, Options: opts}
}

// Actions returns the trade actions a user may request.
func Actions() []string {
	return []string{
		"buy",   // open a buy order
		"sell",  // open a sell order
		"close", // close an existing position
	}
}

// PlaceTrade opens a market position. action is "buy" or "sell" in any case;
// sl and tp are optional.
func (t *Trader) PlaceTrade(ctx context.Context, symbol, action string, lots float64, sl, tp *float64) (*model.OrderResult, error) {
	var orderType model.OrderType
	switch strings.ToLower(action) {
	case "buy":
		orderType = model.OrderTypeBuy
	case "sell":
		orderType = model.OrderTypeSell
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if !Positive(lots) {
		return nil, fmt.Errorf("%w: volume must be positive", ErrInvalidOrder)
	}
	if err := t.ensureSymbol(ctx, symbol); err != nil {
		return nil, err
	}

	tick, err := t.Session.Tick(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	price := tick.Ask
	if orderType == model.OrderTypeSell {
		price = tick.Bid
	}

	return t.send(ctx, model.OrderRequest{
		Action:     model.TradeActionDeal,
		Symbol:     symbol,
		Volume:     lots,
		Type:       orderType,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
		Deviation:  t.Options.Deviation,
		Magic:      t.Options.Magic,
		Comment:    t.Options.Comment,
	})
}

// PlacePendingOrder places a limit, stop or stop-limit order that triggers at price.
func (t *Trader) PlacePendingOrder(ctx context.Context, symbol string, orderType model.OrderType, lots, price float64, sl, tp *float64) (*model.OrderResult, error) {
	if !orderType.Pending() {
		return nil, fmt.Errorf("%w: %s is not a pending order type", ErrInvalidOrder, orderType)
	}
	if !Positive(lots) {
		return nil, fmt.Errorf("%w: volume must be positive", ErrInvalidOrder)
	}
	if !Positive(price) {
		return nil, fmt.Errorf("%w: trigger price must be positive", ErrInvalidOrder)
	}
	if err := t.ensureSymbol(ctx, symbol); err != nil {
		return nil, err
	}

	return t.send(ctx, model.OrderRequest{
		Action:     model.TradeActionPending,
		Symbol:     symbol,
		Volume:     lots,
		Type:       orderType,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
		Deviation:  t.Options.Deviation,
		Magic:      t.Options.Magic,
		Comment:    t.Options.PendingComment,
	})
}

// Positive reports whether v is a finite number greater than zero.
func Positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// ensureSymbol checks that symbol exists and makes it visible in market watch.
func (t *Trader) ensureSymbol(ctx context.Context, symbol string) error {
	info, err := t.Session.SymbolInfo(ctx, symbol)
	if err != nil {
		return fmt.Errorf("symbol %s: %w", symbol, err)
	}
	if !info.Visible {
		if err := t.Session.SelectSymbol(ctx, symbol, true); err != nil {
			return fmt.Errorf("failed to select symbol %s: %w", symbol, err)
		}
	}
	return nil
}

func (t *Trader) send(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	req.RequestID = uuid.NewString()
	res, err := t.Session.OrderSend(ctx, req)
	if err != nil {
		err = fmt.Errorf("send %s %s: %w", req.Type, req.Symbol, err)
		t.notify(req, nil, err)
		return nil, err
	}
	if !res.Done() {
		rej := &RejectError{Retcode: res.Retcode, Comment: res.Comment, LastError: t.Session.LastError()}
		log.Printf("[WARN] %s %s %.2f lots: %v", req.Type, req.Symbol, req.Volume, rej)
		t.notify(req, &res, rej)
		return &res, rej
	}
	log.Printf("[INFO] %s %s %.2f lots accepted, ticket %d", req.Type, req.Symbol, req.Volume, res.Order)
	t.notify(req, &res, nil)
	return &res, nil
}

func (t *Trader) notify(req model.OrderRequest, res *model.OrderResult, err error) {
	if t.OnOrder != nil {
		t.OnOrder(req, res, err)
	}
}
