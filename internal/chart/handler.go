package chart

import (
	"bytes"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
)

// Handler serves the latest chart per symbol at /chart?symbol= and an index at /.
type Handler struct {
	store *Store
	mux   *http.ServeMux
}

func NewHandler(store *Store) *Handler {
	h := &Handler{store: store, mux: http.NewServeMux()}
	h.mux.HandleFunc("/chart", h.handleChart)
	h.mux.HandleFunc("/", h.handleIndex)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><head><title>PatternScope</title></head><body><h1>PatternScope</h1><ul>")
	for _, sym := range h.store.Symbols() {
		a := h.store.Get(sym)
		fmt.Fprintf(w, `<li><a href="/chart?symbol=%s">%s</a> %s, %d bars, %s</li>`,
			url.QueryEscape(sym), html.EscapeString(sym), a.Timeframe, len(a.Series),
			a.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprint(w, "</ul></body></html>")
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	a := h.store.Get(symbol)
	if a == nil {
		http.Error(w, fmt.Sprintf("no analysis for %s yet", symbol), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := Render(&buf, a); err != nil {
		log.Printf("[ERROR] render chart %s: %v", symbol, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
