package model

import "time"

// Column names of the raw price frame produced by the fetcher
const (
	ColDate   = "Date"
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
	ColSymbol = "stock"
)

// PriceColumns lists the price columns in frame order
var PriceColumns = []string{ColOpen, ColHigh, ColLow, ColClose}

// Bar represents one daily candle as returned by a provider.
// Prices the provider left empty are NaN, a missing volume is -1.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
