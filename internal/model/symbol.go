package model

// SymbolInfo holds the essential properties of a tradable symbol.
type SymbolInfo struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Path              string  `json:"path"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Point             float64 `json:"point"`
	Digits            int     `json:"digits"`
	Spread            int     `json:"spread"`
	TickSize          float64 `json:"tick_size"`
	TradeContractSize float64 `json:"trade_contract_size"`
	MarginInitial     float64 `json:"margin_initial"`
	Visible           bool    `json:"visible,omitempty"`
}
