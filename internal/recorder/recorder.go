package recorder

import "PatternScope/internal/model"

// OrderEvent records one order request and the terminal's answer.
type OrderEvent struct {
	Request model.OrderRequest
	Result  *model.OrderResult // nil when the request never reached the terminal
	Err     error
	Source  string // "cli" or "telegram"
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	RecordOrder(evt *OrderEvent) error
	Close() error
}
