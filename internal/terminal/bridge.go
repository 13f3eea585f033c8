package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"PatternScope/internal/model"
)

// BridgeSession implements Session against the terminal's REST bridge.
type BridgeSession struct {
	BaseURL string
	Client  *http.Client

	mu      sync.Mutex
	token   string
	account int64
	lastErr error
}

// NewBridgeSession creates a session with optional proxy support. Call Login before use.
func NewBridgeSession(baseURL, proxyURL string, timeout time.Duration) *BridgeSession {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BridgeSession{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type loginRequest struct {
	Account  int64  `json:"account"`
	Password string `json:"password"`
	Server   string `json:"server"`
	OTP      string `json:"otp,omitempty"`
}

// Login authenticates and stores the session token.
func (b *BridgeSession) Login(ctx context.Context, creds Credentials) error {
	body := loginRequest{Account: creds.Account, Password: creds.Password, Server: creds.Server}
	if creds.TOTPSecret != "" {
		code, err := totp.GenerateCode(creds.TOTPSecret, time.Now())
		if err != nil {
			return fmt.Errorf("generate totp: %w", err)
		}
		body.OTP = code
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := b.do(ctx, http.MethodPost, "/api/v1/login", nil, body, &out, false); err != nil {
		return fmt.Errorf("login to account %d: %w", creds.Account, err)
	}
	if out.Token == "" {
		return fmt.Errorf("login to account %d: empty session token", creds.Account)
	}

	b.mu.Lock()
	b.token = out.Token
	b.account = creds.Account
	b.mu.Unlock()
	log.Printf("[INFO] logged in to account %d on %s", creds.Account, creds.Server)
	return nil
}

// Close logs out. Closing a session that never logged in is a no-op.
func (b *BridgeSession) Close(ctx context.Context) error {
	if b.sessionToken() == "" {
		return nil
	}
	err := b.do(ctx, http.MethodPost, "/api/v1/logout", nil, nil, nil, true)

	b.mu.Lock()
	account := b.account
	b.token = ""
	b.account = 0
	b.mu.Unlock()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	log.Printf("[INFO] logged out of account %d", account)
	return nil
}

func (b *BridgeSession) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// bridgeSymbol is the JSON shape of a symbol from the bridge.
type bridgeSymbol struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Path              string  `json:"path"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Point             float64 `json:"point"`
	Digits            int     `json:"digits"`
	Spread            int     `json:"spread"`
	TradeTickSize     float64 `json:"trade_tick_size"`
	TradeContractSize float64 `json:"trade_contract_size"`
	MarginInitial     float64 `json:"margin_initial"`
	Visible           bool    `json:"visible"`
}

func (s bridgeSymbol) toModel() model.SymbolInfo {
	return model.SymbolInfo{
		Name:              s.Name,
		Description:       s.Description,
		Path:              s.Path,
		Bid:               s.Bid,
		Ask:               s.Ask,
		Point:             s.Point,
		Digits:            s.Digits,
		Spread:            s.Spread,
		TickSize:          s.TradeTickSize,
		TradeContractSize: s.TradeContractSize,
		MarginInitial:     s.MarginInitial,
		Visible:           s.Visible,
	}
}

func (b *BridgeSession) Symbols(ctx context.Context) ([]model.SymbolInfo, error) {
	var raw []bridgeSymbol
	if err := b.do(ctx, http.MethodGet, "/api/v1/symbols", nil, nil, &raw, true); err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	out := make([]model.SymbolInfo, len(raw))
	for i, s := range raw {
		out[i] = s.toModel()
	}
	return out, nil
}

func (b *BridgeSession) SymbolInfo(ctx context.Context, name string) (model.SymbolInfo, error) {
	var raw bridgeSymbol
	if err := b.do(ctx, http.MethodGet, "/api/v1/symbols/"+url.PathEscape(name), nil, nil, &raw, true); err != nil {
		return model.SymbolInfo{}, fmt.Errorf("symbol info %s: %w", name, symbolErr(err))
	}
	return raw.toModel(), nil
}

func (b *BridgeSession) SelectSymbol(ctx context.Context, name string, enable bool) error {
	body := map[string]bool{"enable": enable}
	if err := b.do(ctx, http.MethodPost, "/api/v1/symbols/"+url.PathEscape(name)+"/select", nil, body, nil, true); err != nil {
		return fmt.Errorf("select symbol %s: %w", name, symbolErr(err))
	}
	return nil
}

type bridgeTick struct {
	Time int64   `json:"time"`
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
}

func (b *BridgeSession) Tick(ctx context.Context, name string) (model.Tick, error) {
	var raw bridgeTick
	if err := b.do(ctx, http.MethodGet, "/api/v1/ticks/"+url.PathEscape(name), nil, nil, &raw, true); err != nil {
		return model.Tick{}, fmt.Errorf("tick %s: %w", name, symbolErr(err))
	}
	return model.Tick{Time: time.Unix(raw.Time, 0).UTC(), Bid: raw.Bid, Ask: raw.Ask, Last: raw.Last}, nil
}

// bridgeRate is one bar as returned by the rates endpoint.
type bridgeRate struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume float64 `json:"tick_volume"`
	Spread     int     `json:"spread"`
}

// CopyRatesFromPos returns count bars of symbol ending start bars before the current one.
func (b *BridgeSession) CopyRatesFromPos(ctx context.Context, symbol string, tf model.Timeframe, start, count int) (model.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", string(tf))
	q.Set("start", strconv.Itoa(start))
	q.Set("count", strconv.Itoa(count))

	var raw []bridgeRate
	if err := b.do(ctx, http.MethodGet, "/api/v1/rates", q, nil, &raw, true); err != nil {
		return nil, fmt.Errorf("copy rates %s %s: %w", symbol, tf, symbolErr(err))
	}
	series := make(model.Series, len(raw))
	for i, r := range raw {
		series[i] = model.Candle{
			Time:       time.Unix(r.Time, 0).UTC(),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			TickVolume: r.TickVolume,
			Spread:     r.Spread,
		}
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series, nil
}

// OrderSend submits req. A rejected order is not an error here; inspect the result's Retcode.
func (b *BridgeSession) OrderSend(ctx context.Context, req model.OrderRequest) (model.OrderResult, error) {
	var res model.OrderResult
	if err := b.do(ctx, http.MethodPost, "/api/v1/orders", nil, req, &res, true); err != nil {
		return model.OrderResult{}, fmt.Errorf("order send %s: %w", req.Symbol, err)
	}
	if !res.Done() {
		b.setLastError(&APIError{Status: http.StatusOK, Code: res.Retcode, Message: res.Comment})
	}
	return res, nil
}

func (b *BridgeSession) sessionToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *BridgeSession) setLastError(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

// symbolErr maps a 404 from a per-symbol route to ErrSymbolNotFound.
func symbolErr(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrSymbolNotFound, apiErr)
	}
	return err
}

// do sends one request. When auth is set the session token is attached and
// ErrNotLoggedIn is returned without a round trip if there is none.
func (b *BridgeSession) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	token := b.sessionToken()
	if auth && token == "" {
		return ErrNotLoggedIn
	}

	endpoint := b.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(raw)
		}
		b.setLastError(apiErr)
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrNotLoggedIn, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
