package terminal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"PatternScope/internal/model"
)

// MockSession is an in-memory terminal for development and tests.
type MockSession struct {
	// Account and Password, when set, must match the login credentials.
	Account  int64
	Password string

	SymbolTable map[string]model.SymbolInfo
	Ticks       map[string]model.Tick
	Rates       map[string]model.Series
	// Retcode is returned for every order; zero means model.RetcodeDone.
	Retcode int

	mu       sync.Mutex
	loggedIn bool
	lastErr  error
	orders   []model.OrderRequest
	selected []string
	nextID   uint64
}

func (m *MockSession) Login(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if (m.Account != 0 && creds.Account != m.Account) || (m.Password != "" && creds.Password != m.Password) {
		m.lastErr = &APIError{Status: 401, Code: -6, Message: "authorization failed"}
		return fmt.Errorf("login to account %d: %w", creds.Account, m.lastErr)
	}
	m.loggedIn = true
	return nil
}

func (m *MockSession) Close(_ context.Context) error {
	m.mu.Lock()
	m.loggedIn = false
	m.mu.Unlock()
	return nil
}

func (m *MockSession) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Orders returns every request accepted by OrderSend, in order.
func (m *MockSession) Orders() []model.OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderRequest(nil), m.orders...)
}

// Selected returns the symbols passed to SelectSymbol with enable set.
func (m *MockSession) Selected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.selected...)
}

func (m *MockSession) checkLogin() error {
	if !m.loggedIn {
		return ErrNotLoggedIn
	}
	return nil
}

func (m *MockSession) Symbols(_ context.Context) ([]model.SymbolInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return nil, err
	}
	out := make([]model.SymbolInfo, 0, len(m.SymbolTable))
	for _, s := range m.SymbolTable {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockSession) SymbolInfo(_ context.Context, name string) (model.SymbolInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return model.SymbolInfo{}, err
	}
	s, ok := m.SymbolTable[name]
	if !ok {
		return model.SymbolInfo{}, fmt.Errorf("symbol info %s: %w", name, ErrSymbolNotFound)
	}
	return s, nil
}

func (m *MockSession) SelectSymbol(_ context.Context, name string, enable bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return err
	}
	s, ok := m.SymbolTable[name]
	if !ok {
		return fmt.Errorf("select symbol %s: %w", name, ErrSymbolNotFound)
	}
	s.Visible = enable
	m.SymbolTable[name] = s
	if enable {
		m.selected = append(m.selected, name)
	}
	return nil
}

func (m *MockSession) Tick(_ context.Context, name string) (model.Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return model.Tick{}, err
	}
	t, ok := m.Ticks[name]
	if !ok {
		return model.Tick{}, fmt.Errorf("tick %s: %w", name, ErrSymbolNotFound)
	}
	return t, nil
}

func (m *MockSession) CopyRatesFromPos(_ context.Context, symbol string, tf model.Timeframe, start, count int) (model.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return nil, err
	}
	if !tf.Valid() {
		return nil, fmt.Errorf("copy rates %s: unknown timeframe %q", symbol, tf)
	}
	all, ok := m.Rates[symbol]
	if !ok {
		return nil, fmt.Errorf("copy rates %s: %w", symbol, ErrSymbolNotFound)
	}
	end := len(all) - start
	if end <= 0 || count <= 0 {
		return model.Series{}, nil
	}
	from := max(end-count, 0)
	return append(model.Series(nil), all[from:end]...), nil
}

func (m *MockSession) OrderSend(_ context.Context, req model.OrderRequest) (model.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLogin(); err != nil {
		return model.OrderResult{}, err
	}
	if _, ok := m.SymbolTable[req.Symbol]; !ok {
		return model.OrderResult{}, fmt.Errorf("order send %s: %w", req.Symbol, ErrSymbolNotFound)
	}
	m.orders = append(m.orders, req)

	retcode := m.Retcode
	if retcode == 0 {
		retcode = model.RetcodeDone
	}
	res := model.OrderResult{
		Retcode:   retcode,
		Volume:    req.Volume,
		Price:     req.Price,
		RequestID: req.RequestID,
		Comment:   "Request executed",
	}
	if retcode != model.RetcodeDone {
		res.Comment = "Request rejected"
		m.lastErr = &APIError{Status: 200, Code: retcode, Message: res.Comment}
		return res, nil
	}
	m.nextID++
	res.Order = 1000 + m.nextID
	if !req.Type.Pending() {
		res.Deal = 2000 + m.nextID
	}
	if t, ok := m.Ticks[req.Symbol]; ok {
		res.Bid, res.Ask = t.Bid, t.Ask
	}
	return res, nil
}

// NewDemoSession returns a MockSession that knows symbols, with n generated
// bars each and a one-point spread around the last close.
func NewDemoSession(symbols []string, tf model.Timeframe, n int) *MockSession {
	n = max(n, 1)
	end := time.Now().UTC().Truncate(tf.Duration())
	m := &MockSession{
		SymbolTable: make(map[string]model.SymbolInfo, len(symbols)),
		Ticks:       make(map[string]model.Tick, len(symbols)),
		Rates:       make(map[string]model.Series, len(symbols)),
	}
	for i, sym := range symbols {
		rates := GenerateRates(1.1+float64(i)*0.1, tf, end, n)
		last := rates[len(rates)-1].Close
		m.Rates[sym] = rates
		m.Ticks[sym] = model.Tick{Time: end, Bid: last, Ask: last + 0.00001}
		m.SymbolTable[sym] = model.SymbolInfo{
			Name:              sym,
			Description:       sym + " demo",
			Path:              "Demo\\" + sym,
			Bid:               last,
			Ask:               last + 0.00001,
			Point:             0.00001,
			Digits:            5,
			Spread:            1,
			TickSize:          0.00001,
			TradeContractSize: 100000,
		}
	}
	return m
}

// GenerateRates builds n bars ending at end. Every fifth bar gaps down, which
// yields fair-value gaps, order blocks and breaker blocks at fixed offsets.
func GenerateRates(basePrice float64, tf model.Timeframe, end time.Time, n int) model.Series {
	step := tf.Duration()
	if step == 0 {
		step = time.Hour
	}
	bars := make(model.Series, n)
	price := basePrice
	for i := 0; i < n; i++ {
		drift := basePrice * 0.002
		var open, close float64
		switch i % 5 {
		case 0, 1:
			open, close = price, price+drift
		case 2:
			open, close = price-drift*2, price-drift*3
		default:
			open, close = price, price-drift*0.5
		}
		bars[i] = model.Candle{
			Time:       end.Add(-time.Duration(n-1-i) * step),
			Open:       open,
			High:       max(open, close) + drift*0.2,
			Low:        min(open, close) - drift*0.2,
			Close:      close,
			TickVolume: 100,
		}
		price = close
	}
	return bars
}

var _ Session = (*MockSession)(nil)
var _ Session = (*BridgeSession)(nil)
