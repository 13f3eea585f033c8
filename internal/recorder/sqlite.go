package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PatternScope/internal/model"
)

// SQLiteRecorder persists analysis runs and orders to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id      TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			source      TEXT,
			candles     INTEGER,
			first_bar   INTEGER,
			last_bar    INTEGER,
			last_close  REAL,
			hits        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS annotations (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL REFERENCES analysis_runs(run_id),
			pattern   TEXT NOT NULL,
			bar_index INTEGER NOT NULL,
			bar_time  INTEGER NOT NULL,
			value     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_run ON annotations(run_id)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT,
			source      TEXT,
			symbol      TEXT,
			action      TEXT,
			order_type  TEXT,
			volume      REAL,
			price       REAL,
			sl          REAL,
			tp          REAL,
			retcode     INTEGER,
			ticket      INTEGER,
			deal        INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON orders(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordAnalysis stores the run and every labelled bar in one transaction.
func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first, last int64
	var lastClose float64
	if n := len(a.Series); n > 0 {
		first = a.Series[0].Time.Unix()
		last = a.Series[n-1].Time.Unix()
		lastClose = a.Series[n-1].Close
	}
	hits := 0
	for _, col := range a.Annotations {
		hits += col.Count()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO analysis_runs
		(run_id, timestamp, symbol, timeframe, source, candles, first_bar, last_bar, last_close, hits)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.RunID, a.CreatedAt.Unix(), a.Symbol, string(a.Timeframe), a.Source,
		len(a.Series), first, last, lastClose, hits,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO annotations (run_id, pattern, bar_index, bar_time, value) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare annotations: %w", err)
	}
	defer stmt.Close()
	for _, col := range a.Annotations {
		for _, i := range col.Indices() {
			v, _ := col.At(i)
			if _, err := stmt.Exec(a.RunID, col.Name, i, a.Series[i].Time.Unix(), v); err != nil {
				return fmt.Errorf("insert annotation %s[%d]: %w", col.Name, i, err)
			}
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordOrder(evt *OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := evt.Request
	var retcode int
	var ticket, deal uint64
	if evt.Result != nil {
		retcode = evt.Result.Retcode
		ticket = evt.Result.Order
		deal = evt.Result.Deal
	}
	var errText string
	if evt.Err != nil {
		errText = evt.Err.Error()
	}

	_, err := r.db.Exec(`INSERT INTO orders
		(timestamp, request_id, source, symbol, action, order_type, volume, price, sl, tp, retcode, ticket, deal, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), req.RequestID, evt.Source, req.Symbol,
		req.Action.String(), req.Type.String(), req.Volume, req.Price,
		nullable(req.StopLoss), nullable(req.TakeProfit),
		retcode, int64(ticket), int64(deal), errText,
	)
	return err
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
