package trading

import (
	"fmt"
	"time"
)

// Category is the broker's risk class of an instrument, A (least risky)
// through G.
type Category string

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
	CategoryC Category = "C"
	CategoryD Category = "D"
	CategoryE Category = "E"
	CategoryF Category = "F"
	CategoryG Category = "G"
)

var categoryRank = map[Category]int{
	CategoryA: 0,
	CategoryB: 1,
	CategoryC: 2,
	CategoryD: 3,
	CategoryE: 4,
	CategoryF: 5,
	CategoryG: 6,
}

// Rank returns the ordinal of the category, or -1 for an unknown code.
func (c Category) Rank() int {
	rank, ok := categoryRank[c]
	if !ok {
		return -1
	}
	return rank
}

// ParseCategory validates a category code received from the CLI or the wire.
func ParseCategory(code string) (Category, error) {
	if _, ok := categoryRank[Category(code)]; !ok {
		return "", fmt.Errorf("unknown product category [%v]", code)
	}
	return Category(code), nil
}

// OrderType is an order kind the broker accepts for an instrument.
type OrderType string

const (
	OrderTypeLimit        OrderType = "LIMIT"
	OrderTypeMarket       OrderType = "MARKET"
	OrderTypeStopLoss     OrderType = "STOPLOSS"
	OrderTypeStopLimit    OrderType = "STOPLIMIT"
	OrderTypeTrailingStop OrderType = "TRAILINGSTOP"
)

// Instrument is one tradable product. Instances are immutable once fetched;
// a re-fetch replaces the whole value.
type Instrument struct {
	ID             string      `json:"id"`
	Symbol         string      `json:"symbol"`
	Name           string      `json:"name"`
	ISIN           string      `json:"isin"`
	Category       Category    `json:"category"`
	ProductType    string      `json:"productType"`
	ExchangeID     string      `json:"exchangeId"`
	ContractSize   float64     `json:"contractSize"`
	Active         bool        `json:"active"`
	Tradable       bool        `json:"tradable"`
	OnlyEODPrices  bool        `json:"onlyEodPrices"`
	BuyOrderTypes  []OrderType `json:"buyOrderTypes"`
	SellOrderTypes []OrderType `json:"sellOrderTypes"`
	ClosePrice     float64     `json:"closePrice"`
	ClosePriceDate time.Time   `json:"closePriceDate"`
	// MarketDataID addresses the instrument in the charting backend and is
	// required to request its price series.
	MarketDataID string `json:"marketDataId"`
}

// AllowsBuyOrder reports whether the broker accepts the given order type on
// the buy side for this instrument.
func (i *Instrument) AllowsBuyOrder(orderType OrderType) bool {
	for _, t := range i.BuyOrderTypes {
		if t == orderType {
			return true
		}
	}
	return false
}
