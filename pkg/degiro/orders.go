package degiro

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const orderDateLayout = "2006-01-02T15:04:05"

// formatID renders a numeric upstream product id in the string form the
// domain keys instruments by.
func formatID(id float64) string {
	return strconv.FormatInt(int64(id), 10)
}

// Orders returns the decoded open orders.
func (c *Client) Orders(ctx context.Context) ([]trading.Order, error) {
	var orders []trading.Order

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			var decoded struct {
				Orders struct {
					Value []row `json:"value"`
				} `json:"orders"`
			}

			query := url.Values{}
			query.Set("orders", "0")

			err := c.getJSON(ctx, c.genericDataURL(), query, &decoded)
			if err != nil {
				return err
			}

			orders = orders[:0]
			for _, r := range decoded.Orders.Value {
				order, err := decodeOrder(r)
				if err != nil {
					return err
				}
				orders = append(orders, order)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func decodeOrder(r row) (trading.Order, error) {
	decoder := newRowDecoder("order", r)

	id, err := decoder.str("id")
	if err != nil {
		return trading.Order{}, err
	}

	size, err := decoder.f64("size")
	if err != nil {
		return trading.Order{}, err
	}

	order := trading.Order{
		ID:        id,
		Symbol:    decoder.optStr("product"),
		Size:      size,
		Price:     decoder.optF64("price"),
		StopPrice: decoder.optF64("stopPrice"),
		Currency:  decoder.optStr("currency"),
		Type:      trading.OrderType(decoder.optStr("orderType")),
	}

	// productId arrives as a number; the domain keys instruments by the
	// string form everywhere.
	if productID := decoder.optF64("productId"); productID != 0 {
		order.InstrumentID = formatID(productID)
	}

	side, err := decoder.str("buysell")
	if err != nil {
		return trading.Order{}, err
	}
	if strings.EqualFold(side, "SELL") || strings.EqualFold(side, "S") {
		order.Side = trading.OrderSideSell
	} else {
		order.Side = trading.OrderSideBuy
	}

	if raw := decoder.optStr("date"); raw != "" {
		if created, err := time.Parse(orderDateLayout, raw); err == nil {
			order.Created = created.UTC()
		}
	}

	return order, nil
}
