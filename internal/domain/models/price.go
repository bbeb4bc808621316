package models

import "time"

// PricePoint is one (timestamp, close price) observation.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Series is one ticker's ordered price history.
type Series struct {
	Ticker string
	Points []PricePoint
}

// Quote is the latest observed price for a ticker.
type Quote struct {
	Ticker string
	Time   time.Time
	Price  float64
}

// Tick is one appended realtime observation, as exported to the archive
// backends.
type Tick struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"t"`
	Price  float64   `json:"c"`
}
