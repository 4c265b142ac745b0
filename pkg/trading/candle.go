package trading

import "time"

// Candle is one OHLC observation of a price series.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// PriceSeries is the ordered candle history of one instrument at one
// resolution.
type PriceSeries struct {
	InstrumentID string   `json:"instrumentId"`
	Symbol       string   `json:"symbol"`
	Resolution   Period   `json:"resolution"`
	Candles      []Candle `json:"candles"`
}

// Len returns the number of candles in the series.
func (ps *PriceSeries) Len() int {
	return len(ps.Candles)
}

// Closes returns the close prices in time order.
func (ps *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(ps.Candles))
	for i, candle := range ps.Candles {
		closes[i] = candle.Close
	}
	return closes
}

// Returns yields the simple period-over-period returns of the close prices.
// A series of n candles produces n-1 returns.
func (ps *PriceSeries) Returns() []float64 {
	if len(ps.Candles) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(ps.Candles)-1)
	for i := 1; i < len(ps.Candles); i++ {
		previous := ps.Candles[i-1].Close
		if previous == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, ps.Candles[i].Close/previous-1)
	}
	return returns
}

// TakeLast returns a copy of the series truncated to its last n candles.
// Shorter series are returned unchanged.
func (ps *PriceSeries) TakeLast(n int) *PriceSeries {
	taken := *ps
	if len(ps.Candles) > n {
		taken.Candles = append([]Candle(nil), ps.Candles[len(ps.Candles)-n:]...)
	}
	return &taken
}

// Equal compares two series value by value.
func (ps *PriceSeries) Equal(other *PriceSeries) bool {
	if ps.InstrumentID != other.InstrumentID ||
		ps.Symbol != other.Symbol ||
		ps.Resolution != other.Resolution ||
		len(ps.Candles) != len(other.Candles) {
		return false
	}
	for i, candle := range ps.Candles {
		o := other.Candles[i]
		if !candle.Time.Equal(o.Time) ||
			candle.Open != o.Open ||
			candle.High != o.High ||
			candle.Low != o.Low ||
			candle.Close != o.Close {
			return false
		}
	}
	return true
}
