package degiro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const productsInfoPath = "v5/products/info"
const productsLookupPath = "v5/products/lookup"

// productPayload is the upstream encoding of one instrument.
type productPayload struct {
	ID             string              `json:"id"`
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name"`
	ISIN           string              `json:"isin"`
	Category       string              `json:"category"`
	ProductType    string              `json:"productType"`
	ExchangeID     string              `json:"exchangeId"`
	ContractSize   float64             `json:"contractSize"`
	Active         bool                `json:"active"`
	Tradable       bool                `json:"tradable"`
	OnlyEODPrices  bool                `json:"onlyEodPrices"`
	BuyOrderTypes  []trading.OrderType `json:"buyOrderTypes"`
	SellOrderTypes []trading.OrderType `json:"sellOrderTypes"`
	ClosePrice     float64             `json:"closePrice"`
	ClosePriceDate string              `json:"closePriceDate"`
	VwdID          string              `json:"vwdId"`
}

func (p *productPayload) toInstrument() (*trading.Instrument, error) {
	if p.ID == "" {
		return nil, &trading.DecodeError{Entity: "instrument", Field: "id"}
	}

	instrument := &trading.Instrument{
		ID:             p.ID,
		Symbol:         p.Symbol,
		Name:           p.Name,
		ISIN:           p.ISIN,
		Category:       trading.Category(p.Category),
		ProductType:    p.ProductType,
		ExchangeID:     p.ExchangeID,
		ContractSize:   p.ContractSize,
		Active:         p.Active,
		Tradable:       p.Tradable,
		OnlyEODPrices:  p.OnlyEODPrices,
		BuyOrderTypes:  p.BuyOrderTypes,
		SellOrderTypes: p.SellOrderTypes,
		ClosePrice:     p.ClosePrice,
		MarketDataID:   p.VwdID,
	}

	if p.ClosePriceDate != "" {
		date, err := time.Parse("2006-01-02", p.ClosePriceDate)
		if err != nil {
			return nil, &trading.DecodeError{
				Entity: "instrument",
				Field:  "closePriceDate",
				Cause:  err,
			}
		}
		instrument.ClosePriceDate = date
	}

	return instrument, nil
}

// Instruments returns the instruments for the given ids, cache first. Only
// the ids missing from the in-memory cache are fetched upstream, in one
// batch call.
func (c *Client) Instruments(
	ctx context.Context,
	ids []string,
) (map[string]*trading.Instrument, error) {
	found := make(map[string]*trading.Instrument, len(ids))
	var missing []string

	c.instrumentsMutex.RLock()
	for _, id := range ids {
		if instrument, ok := c.instruments[id]; ok {
			found[id] = instrument
		} else {
			missing = append(missing, id)
		}
	}
	c.instrumentsMutex.RUnlock()

	if len(missing) == 0 {
		return found, nil
	}

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			return c.fetchInstruments(ctx, missing)
		},
	)
	if err != nil {
		return nil, err
	}

	c.instrumentsMutex.RLock()
	for _, id := range missing {
		if instrument, ok := c.instruments[id]; ok {
			found[id] = instrument
		}
	}
	c.instrumentsMutex.RUnlock()

	return found, nil
}

// Instrument returns a single instrument by id.
func (c *Client) Instrument(
	ctx context.Context,
	id string,
) (*trading.Instrument, error) {
	instruments, err := c.Instruments(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	instrument, ok := instruments[id]
	if !ok {
		return nil, fmt.Errorf("instrument [%v]: %w", id, trading.ErrNotFound)
	}

	return instrument, nil
}

func (c *Client) fetchInstruments(ctx context.Context, ids []string) error {
	sessionID, _, account, resolved := c.session()

	query := url.Values{}
	query.Set("sessionId", sessionID)
	query.Set("intAccount", strconv.Itoa(account.IntAccount))

	var decoded struct {
		Data map[string]*productPayload `json:"data"`
	}
	err := c.postJSON(
		ctx,
		joinURL(resolved.productSearchURL, productsInfoPath),
		query,
		ids,
		&decoded,
	)
	if err != nil {
		return err
	}

	if decoded.Data == nil {
		return &trading.DecodeError{Entity: "instruments", Field: "data"}
	}

	c.instrumentsMutex.Lock()
	defer c.instrumentsMutex.Unlock()

	for id, payload := range decoded.Data {
		instrument, err := payload.toInstrument()
		if err != nil {
			return err
		}
		c.instruments[id] = instrument
	}

	c.logger.WithField("count", len(decoded.Data)).Debugf("fetched instruments")

	return nil
}

// Search queries the broker's product lookup with free text and returns the
// matching instruments, capped at limit. Results are not cached; only a
// products-info fetch carries the full instrument payload.
func (c *Client) Search(
	ctx context.Context,
	text string,
	limit int,
) ([]*trading.Instrument, error) {
	var results []*trading.Instrument

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			sessionID, _, account, resolved := c.session()

			query := url.Values{}
			query.Set("sessionId", sessionID)
			query.Set("intAccount", strconv.Itoa(account.IntAccount))
			query.Set("searchText", text)
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", "0")

			var decoded struct {
				Products []*productPayload `json:"products"`
			}
			err := c.getJSON(
				ctx,
				joinURL(resolved.productSearchURL, productsLookupPath),
				query,
				&decoded,
			)
			if err != nil {
				return err
			}

			results = results[:0]
			for _, payload := range decoded.Products {
				instrument, err := payload.toInstrument()
				if err != nil {
					return err
				}
				results = append(results, instrument)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return results, nil
}
