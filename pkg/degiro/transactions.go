package degiro

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const (
	transactionsPath    = "v4/transactions"
	accountOverviewPath = "v6/accountoverview"

	reportDateLayout = "02/01/2006"
)

type transactionPayload struct {
	ID          int     `json:"id"`
	ProductID   int     `json:"productId"`
	BuySell     string  `json:"buysell"`
	Date        string  `json:"date"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
	TotalInBase float64 `json:"totalInBaseCurrency"`
	FeesInBase  float64 `json:"totalFeesInBaseCurrency"`
	Venue       string  `json:"tradingVenue"`
}

// Transactions returns the trade confirmations in the given date range,
// inclusive on both ends.
func (c *Client) Transactions(
	ctx context.Context,
	from time.Time,
	to time.Time,
) ([]trading.Transaction, error) {
	var transactions []trading.Transaction

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			sessionID, _, account, resolved := c.session()

			query := url.Values{}
			query.Set("sessionId", sessionID)
			query.Set("intAccount", strconv.Itoa(account.IntAccount))
			query.Set("fromDate", from.Format(reportDateLayout))
			query.Set("toDate", to.Format(reportDateLayout))
			query.Set("groupTransactionsByOrder", "1")

			var decoded struct {
				Data []transactionPayload `json:"data"`
			}
			err := c.getJSON(
				ctx,
				joinURL(resolved.reportingURL, transactionsPath),
				query,
				&decoded,
			)
			if err != nil {
				return err
			}

			transactions = transactions[:0]
			for _, payload := range decoded.Data {
				transaction, err := decodeTransaction(payload)
				if err != nil {
					return err
				}
				transactions = append(transactions, transaction)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func decodeTransaction(payload transactionPayload) (trading.Transaction, error) {
	date, err := time.Parse(time.RFC3339, payload.Date)
	if err != nil {
		return trading.Transaction{}, &trading.DecodeError{
			Entity: "transaction",
			Field:  "date",
			Cause:  err,
		}
	}

	side := trading.OrderSideBuy
	if strings.EqualFold(payload.BuySell, "S") ||
		strings.EqualFold(payload.BuySell, "SELL") {
		side = trading.OrderSideSell
	}

	return trading.Transaction{
		ID:           payload.ID,
		InstrumentID: strconv.Itoa(payload.ProductID),
		Side:         side,
		Date:         date.UTC(),
		Price:        payload.Price,
		Quantity:     payload.Quantity,
		Total:        payload.Total,
		TotalInBase:  payload.TotalInBase,
		FeesInBase:   payload.FeesInBase,
		Venue:        payload.Venue,
	}, nil
}

type cashMovementPayload struct {
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Change   float64 `json:"change"`
	Currency string  `json:"currency"`
	Balance  struct {
		Total float64 `json:"total"`
	} `json:"balance"`
}

// CashMovements returns the cash account report rows in the given range.
func (c *Client) CashMovements(
	ctx context.Context,
	from time.Time,
	to time.Time,
) ([]trading.CashMovement, error) {
	var movements []trading.CashMovement

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			sessionID, _, account, resolved := c.session()

			query := url.Values{}
			query.Set("sessionId", sessionID)
			query.Set("intAccount", strconv.Itoa(account.IntAccount))
			query.Set("fromDate", from.Format(reportDateLayout))
			query.Set("toDate", to.Format(reportDateLayout))

			var decoded struct {
				Data struct {
					CashMovements []cashMovementPayload `json:"cashMovements"`
				} `json:"data"`
			}
			err := c.getJSON(
				ctx,
				joinURL(resolved.reportingURL, accountOverviewPath),
				query,
				&decoded,
			)
			if err != nil {
				return err
			}

			movements = movements[:0]
			for _, payload := range decoded.Data.CashMovements {
				movement, err := decodeCashMovement(payload)
				if err != nil {
					return err
				}
				movements = append(movements, movement)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return movements, nil
}

func decodeCashMovement(payload cashMovementPayload) (trading.CashMovement, error) {
	date, err := time.Parse(time.RFC3339, payload.Date)
	if err != nil {
		return trading.CashMovement{}, &trading.DecodeError{
			Entity: "cash movement",
			Field:  "date",
			Cause:  err,
		}
	}

	return trading.CashMovement{
		Date:     date.UTC(),
		Category: classifyCashMovement(payload.Type, payload.Change),
		Amount:   payload.Change,
		Currency: payload.Currency,
		Balance:  payload.Balance.Total,
	}, nil
}

// classifyCashMovement buckets a row by the upstream type code. The code
// set is locale-independent; the free-text description column is not, so
// it never participates here.
func classifyCashMovement(typeCode string, amount float64) trading.CashCategory {
	switch typeCode {
	case "TRANSACTION":
		return trading.CashCategoryTrade
	case "CASH_TRANSACTION":
		if amount >= 0 {
			return trading.CashCategoryDividend
		}
		return trading.CashCategoryFee
	case "PAYMENT":
		if amount >= 0 {
			return trading.CashCategoryDeposit
		}
		return trading.CashCategoryWithdrawal
	default:
		return trading.CashCategoryOther
	}
}
