// Package terminal is the handle to a trading terminal session. A session is
// opened with Login and must be released with Close; nothing here keeps
// process-wide connection state.
package terminal

import (
	"context"
	"errors"
	"fmt"

	"PatternScope/internal/model"
)

var (
	ErrNotLoggedIn    = errors.New("terminal: not logged in")
	ErrSymbolNotFound = errors.New("terminal: symbol not found")
)

// Credentials identify a trading account on a terminal server.
type Credentials struct {
	Account    int64
	Password   string
	Server     string
	TOTPSecret string // optional, for servers that require a one-time code
}

// Session is an authenticated connection to a trading terminal.
type Session interface {
	Login(ctx context.Context, creds Credentials) error
	Close(ctx context.Context) error
	// LastError returns the most recent error reported by the terminal.
	LastError() error

	Symbols(ctx context.Context) ([]model.SymbolInfo, error)
	SymbolInfo(ctx context.Context, name string) (model.SymbolInfo, error)
	SelectSymbol(ctx context.Context, name string, enable bool) error
	Tick(ctx context.Context, name string) (model.Tick, error)
	CopyRatesFromPos(ctx context.Context, symbol string, tf model.Timeframe, start, count int) (model.Series, error)
	OrderSend(ctx context.Context, req model.OrderRequest) (model.OrderResult, error)
}

// APIError is an error body returned by the terminal.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("terminal error %d (http %d): %s", e.Code, e.Status, e.Message)
}
