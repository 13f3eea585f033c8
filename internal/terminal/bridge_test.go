package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PatternScope/internal/model"
)

func newBridgeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(APIError{Code: -6, Message: "Authorization failed"})
			return
		}
		if len(req.OTP) != 6 {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(APIError{Code: -7, Message: "otp required"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("/api/v1/logout", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("/api/v1/symbols/", authed(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/v1/symbols/")
		if name != "EURUSD" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(APIError{Code: 4301, Message: "unknown symbol"})
			return
		}
		json.NewEncoder(w).Encode(bridgeSymbol{Name: "EURUSD", Digits: 5, TradeTickSize: 0.00001, Visible: true})
	}))
	mux.HandleFunc("/api/v1/rates", authed(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "EURUSD" || q.Get("timeframe") != "M15" || q.Get("count") != "3" {
			http.Error(w, "unexpected query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		// deliberately out of order
		json.NewEncoder(w).Encode([]bridgeRate{
			{Time: 1700001800, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15},
			{Time: 1700000000, Open: 1.0, High: 1.1, Low: 0.9, Close: 1.05},
			{Time: 1700000900, Open: 1.05, High: 1.12, Low: 1.0, Close: 1.1},
		})
	}))
	mux.HandleFunc("/api/v1/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		res := model.OrderResult{Retcode: model.RetcodeDone, Order: 42, RequestID: req.RequestID}
		if req.Volume > 10 {
			res = model.OrderResult{Retcode: 10014, Comment: "Invalid volume"}
		}
		json.NewEncoder(w).Encode(res)
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var testCreds = Credentials{Account: 12345678, Password: "secret", Server: "Demo-Server", TOTPSecret: "JBSWY3DPEHPK3PXP"}

func TestBridge_RequiresLogin(t *testing.T) {
	srv := newBridgeServer(t)
	b := NewBridgeSession(srv.URL, "", 0)
	if _, err := b.SymbolInfo(context.Background(), "EURUSD"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestBridge_LoginFailure(t *testing.T) {
	srv := newBridgeServer(t)
	b := NewBridgeSession(srv.URL, "", 0)
	creds := testCreds
	creds.Password = "wrong"
	err := b.Login(context.Background(), creds)
	if err == nil {
		t.Fatal("expected login error")
	}
	var apiErr *APIError
	if !errors.As(b.LastError(), &apiErr) || apiErr.Code != -6 {
		t.Errorf("expected last error code -6, got %v", b.LastError())
	}
}

func TestBridge_SessionLifecycle(t *testing.T) {
	srv := newBridgeServer(t)
	ctx := context.Background()
	b := NewBridgeSession(srv.URL, "", 0)
	if err := b.Login(ctx, testCreds); err != nil {
		t.Fatalf("login: %v", err)
	}

	info, err := b.SymbolInfo(ctx, "EURUSD")
	if err != nil {
		t.Fatalf("symbol info: %v", err)
	}
	if info.TickSize != 0.00001 || !info.Visible {
		t.Errorf("unexpected symbol info %+v", info)
	}

	if _, err := b.SymbolInfo(ctx, "NOPE"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}

	series, err := b.CopyRatesFromPos(ctx, "EURUSD", model.TimeframeM15, 0, 3)
	if err != nil {
		t.Fatalf("copy rates: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Time.Before(series[i].Time) {
			t.Errorf("candles not chronological at %d", i)
		}
	}

	if err := b.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := b.Tick(ctx, "EURUSD"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after close, got %v", err)
	}
}

func TestBridge_MissingRouteIsNotSymbolNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	b := NewBridgeSession(srv.URL, "", 0)
	if err := b.Login(ctx, testCreds); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := b.Symbols(ctx)
	if errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("list symbols: 404 should not map to ErrSymbolNotFound, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("list symbols: expected APIError with status 404, got %v", err)
	}

	if _, err := b.Tick(ctx, "EURUSD"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("tick: expected ErrSymbolNotFound, got %v", err)
	}

	err = b.Close(ctx)
	if err == nil || errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("logout: expected a plain API error, got %v", err)
	}
}

func TestBridge_OrderRejectSetsLastError(t *testing.T) {
	srv := newBridgeServer(t)
	ctx := context.Background()
	b := NewBridgeSession(srv.URL, "", 0)
	if err := b.Login(ctx, testCreds); err != nil {
		t.Fatalf("login: %v", err)
	}

	res, err := b.OrderSend(ctx, model.OrderRequest{Symbol: "EURUSD", Volume: 0.1, RequestID: "r-1"})
	if err != nil || !res.Done() || res.RequestID != "r-1" {
		t.Fatalf("expected accepted order, got %+v, %v", res, err)
	}

	res, err = b.OrderSend(ctx, model.OrderRequest{Symbol: "EURUSD", Volume: 50})
	if err != nil {
		t.Fatalf("rejected order should not be a transport error: %v", err)
	}
	if res.Done() {
		t.Fatal("expected rejection")
	}
	var apiErr *APIError
	if !errors.As(b.LastError(), &apiErr) || apiErr.Code != 10014 {
		t.Errorf("expected last error code 10014, got %v", b.LastError())
	}
}
