package model

import (
	"fmt"
	"strings"
)

// TradeAction is the kind of trade request sent to the terminal.
type TradeAction int

const (
	TradeActionDeal    TradeAction = 1 // market execution
	TradeActionPending TradeAction = 5 // resting order
)

func (a TradeAction) String() string {
	switch a {
	case TradeActionDeal:
		return "deal"
	case TradeActionPending:
		return "pending"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// OrderType mirrors the terminal's order type codes.
type OrderType int

const (
	OrderTypeBuy OrderType = iota
	OrderTypeSell
	OrderTypeBuyLimit
	OrderTypeSellLimit
	OrderTypeBuyStop
	OrderTypeSellStop
	OrderTypeBuyStopLimit
	OrderTypeSellStopLimit
)

var orderTypeNames = map[OrderType]string{
	OrderTypeBuy:           "buy",
	OrderTypeSell:          "sell",
	OrderTypeBuyLimit:      "buy_limit",
	OrderTypeSellLimit:     "sell_limit",
	OrderTypeBuyStop:       "buy_stop",
	OrderTypeSellStop:      "sell_stop",
	OrderTypeBuyStopLimit:  "buy_stop_limit",
	OrderTypeSellStopLimit: "sell_stop_limit",
}

func (t OrderType) String() string {
	if name, ok := orderTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("order_type(%d)", int(t))
}

// Pending reports whether t rests on the book instead of executing at market.
func (t OrderType) Pending() bool {
	return t >= OrderTypeBuyLimit && t <= OrderTypeSellStopLimit
}

// ParseOrderType accepts the names returned by OrderType.String, case-insensitively.
func ParseOrderType(s string) (OrderType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range orderTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown order type %q", s)
}

// RetcodeDone is the terminal return code for a completed request.
const RetcodeDone = 10009

// OrderRequest is a trade request as understood by the terminal bridge.
type OrderRequest struct {
	RequestID  string      `json:"request_id"`
	Action     TradeAction `json:"action"`
	Symbol     string      `json:"symbol"`
	Volume     float64     `json:"volume"`
	Type       OrderType   `json:"type"`
	Price      float64     `json:"price"`
	StopLoss   *float64    `json:"sl,omitempty"`
	TakeProfit *float64    `json:"tp,omitempty"`
	Deviation  int         `json:"deviation"`
	Magic      int64       `json:"magic"`
	Comment    string      `json:"comment"`
}

// OrderResult is the terminal's answer to an OrderRequest.
type OrderResult struct {
	Retcode   int     `json:"retcode"`
	Deal      uint64  `json:"deal"`
	Order     uint64  `json:"order"`
	Volume    float64 `json:"volume"`
	Price     float64 `json:"price"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Comment   string  `json:"comment"`
	RequestID string  `json:"request_id"`
}

// Done reports whether the terminal accepted the request.
func (r OrderResult) Done() bool { return r.Retcode == RetcodeDone }
