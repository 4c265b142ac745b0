package degiro

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// The charting backend reports candle times as row offsets: each row
// carries the number of whole resolution units between the series start
// and the candle.
const seriesStartLayout = "2006-01-02T15:04:05"

type quotesResponse struct {
	Start  string `json:"start"`
	Series []struct {
		Data [][]float64 `json:"data"`
	} `json:"series"`
}

// PriceSeries returns the candle history of an instrument over the given
// period at the given resolution, consulting the in-memory series cache
// first. Candle times decode as start + offset x resolution.
func (c *Client) PriceSeries(
	ctx context.Context,
	id string,
	period trading.Period,
	resolution trading.Period,
) (*trading.PriceSeries, error) {
	key := seriesKey{id: id, period: period, resolution: resolution}

	c.seriesMutex.RLock()
	cached, ok := c.series[key]
	c.seriesMutex.RUnlock()
	if ok {
		return cached, nil
	}

	instrument, err := c.Instrument(ctx, id)
	if err != nil {
		return nil, err
	}

	var series *trading.PriceSeries

	err = c.resolve(
		ctx,
		needSession|needEndpoints,
		func(ctx context.Context) error {
			_, userToken, _, _ := c.session()

			query := url.Values{}
			query.Set("requestid", "1")
			query.Set("format", "json")
			query.Set("resolution", resolution.String())
			query.Set("period", period.String())
			query.Set("series", "ohlc:issueid:"+instrument.MarketDataID)
			query.Set("userToken", strconv.FormatInt(userToken, 10))

			var decoded quotesResponse
			if err := c.getJSON(ctx, c.marketDataURL, query, &decoded); err != nil {
				return err
			}

			series, err = decodeSeries(&decoded, instrument, resolution)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	c.seriesMutex.Lock()
	c.series[key] = series
	c.seriesMutex.Unlock()

	return series, nil
}

func decodeSeries(
	decoded *quotesResponse,
	instrument *trading.Instrument,
	resolution trading.Period,
) (*trading.PriceSeries, error) {
	start, err := time.Parse(seriesStartLayout, decoded.Start)
	if err != nil {
		return nil, &trading.DecodeError{
			Entity: "price series",
			Field:  "start",
			Cause:  err,
		}
	}
	start = start.UTC()

	if len(decoded.Series) == 0 {
		return nil, &trading.DecodeError{Entity: "price series", Field: "series"}
	}

	rows := decoded.Series[0].Data

	series := &trading.PriceSeries{
		InstrumentID: instrument.ID,
		Symbol:       instrument.Symbol,
		Resolution:   resolution,
		Candles:      make([]trading.Candle, 0, len(rows)),
	}

	for _, row := range rows {
		if len(row) < 5 {
			return nil, &trading.DecodeError{Entity: "price series", Field: "data"}
		}

		offset := time.Duration(int64(row[0])) * resolution.Duration()

		series.Candles = append(series.Candles, trading.Candle{
			Time:  start.Add(offset),
			Open:  row[1],
			High:  row[2],
			Low:   row[3],
			Close: row[4],
		})
	}

	return series, nil
}
