package instruments

import "fmt"

// ExchangeNSE is the only exchange loaded from the dump
const ExchangeNSE = "NSE"

// Instrument represents a trading instrument row of the broker's instrument dump
type Instrument struct {
	InstrumentToken int64   `csv:"instrument_token"`
	ExchangeToken   int64   `csv:"exchange_token"`
	TradingSymbol   string  `csv:"tradingsymbol"`
	Name            string  `csv:"name"`
	LastPrice       float64 `csv:"last_price"`
	Expiry          string  `csv:"expiry"`
	StrikePrice     float64 `csv:"strike"`
	TickSize        float64 `csv:"tick_size"`
	LotSize         int64   `csv:"lot_size"`
	InstrumentType  string  `csv:"instrument_type"`
	Segment         string  `csv:"segment"`
	Exchange        string  `csv:"exchange"`
}

// NotFoundError is returned for a symbol missing from the loaded dump
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("instrument not found: %s", e.Symbol)
}
