package degiro

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const genericDataPath = "v5/update/"

// Positions returns the decoded portfolio rows. Cash rows are kept and
// flagged by position type; callers filter as needed.
func (c *Client) Positions(ctx context.Context) ([]trading.Position, error) {
	var positions []trading.Position

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			var decoded struct {
				Portfolio struct {
					Value []row `json:"value"`
				} `json:"portfolio"`
			}

			query := url.Values{}
			query.Set("portfolio", "0")

			err := c.getJSON(ctx, c.genericDataURL(), query, &decoded)
			if err != nil {
				return err
			}

			positions = positions[:0]
			for _, r := range decoded.Portfolio.Value {
				position, err := decodePosition(r)
				if err != nil {
					return err
				}
				positions = append(positions, position)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return positions, nil
}

// genericDataURL addresses the trading endpoint that serves both the
// portfolio and the open orders. The session rides in the URL path.
func (c *Client) genericDataURL() string {
	sessionID, _, account, resolved := c.session()
	return joinURL(
		resolved.tradingURL,
		fmt.Sprintf("%v%v;jsessionid=%v", genericDataPath, account.IntAccount, sessionID),
	)
}

func decodePosition(r row) (trading.Position, error) {
	decoder := newRowDecoder("position", r)

	id, err := decoder.str("id")
	if err != nil {
		return trading.Position{}, err
	}

	positionType, err := decoder.str("positionType")
	if err != nil {
		return trading.Position{}, err
	}

	size, err := decoder.f64("size")
	if err != nil {
		return trading.Position{}, err
	}

	price, err := decoder.f64("price")
	if err != nil {
		return trading.Position{}, err
	}

	value, err := decoder.f64("value")
	if err != nil {
		return trading.Position{}, err
	}

	position := trading.Position{
		InstrumentID:   id,
		Type:           trading.PositionTypeProduct,
		Size:           size,
		Price:          price,
		Value:          value,
		BreakEvenPrice: decoder.optF64("breakEvenPrice"),
	}

	if strings.EqualFold(positionType, "CASH") {
		position.Type = trading.PositionTypeCash
	}

	// plBase maps currency code to profit/loss; only the currency key is
	// needed here.
	var plBase map[string]float64
	if err := decoder.obj("plBase", &plBase); err == nil {
		for currency := range plBase {
			position.Currency = currency
			break
		}
	}

	return position, nil
}
