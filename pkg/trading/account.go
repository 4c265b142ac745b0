package trading

import "time"

// Account is the broker account snapshot required by most data calls. Only
// the internal account number participates in request addressing; the rest
// is informational.
type Account struct {
	ID          int    `json:"id"`
	IntAccount  int    `json:"intAccount"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Locale      string `json:"locale"`
}

// PositionType distinguishes product rows from cash rows in the portfolio.
type PositionType string

const (
	PositionTypeProduct PositionType = "PRODUCT"
	PositionTypeCash    PositionType = "CASH"
)

// Position is one decoded portfolio row.
type Position struct {
	InstrumentID   string       `json:"instrumentId"`
	Type           PositionType `json:"type"`
	Size           float64      `json:"size"`
	Price          float64      `json:"price"`
	Value          float64      `json:"value"`
	Currency       string       `json:"currency"`
	BreakEvenPrice float64      `json:"breakEvenPrice"`
}

// OrderSide is the direction of an order or transaction.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Order is one decoded open order row.
type Order struct {
	ID           string    `json:"id"`
	InstrumentID string    `json:"instrumentId"`
	Symbol       string    `json:"symbol"`
	Side         OrderSide `json:"side"`
	Type         OrderType `json:"type"`
	Price        float64   `json:"price"`
	StopPrice    float64   `json:"stopPrice"`
	Size         float64   `json:"size"`
	Currency     string    `json:"currency"`
	Created      time.Time `json:"created"`
}

// Transaction is one historical trade confirmation.
type Transaction struct {
	ID           int       `json:"id"`
	InstrumentID string    `json:"instrumentId"`
	Side         OrderSide `json:"side"`
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	Total        float64   `json:"total"`
	TotalInBase  float64   `json:"totalInBase"`
	FeesInBase   float64   `json:"feesInBase"`
	Venue        string    `json:"venue"`
}

// CashCategory classifies a cash account movement.
type CashCategory string

const (
	CashCategoryDeposit    CashCategory = "DEPOSIT"
	CashCategoryWithdrawal CashCategory = "WITHDRAWAL"
	CashCategoryDividend   CashCategory = "DIVIDEND"
	CashCategoryFee        CashCategory = "FEE"
	CashCategoryTrade      CashCategory = "TRADE"
	CashCategoryOther      CashCategory = "OTHER"
)

// CashMovement is one decoded row of the cash account report.
type CashMovement struct {
	Date     time.Time    `json:"date"`
	Category CashCategory `json:"category"`
	Amount   float64      `json:"amount"`
	Currency string       `json:"currency"`
	Balance  float64      `json:"balance"`
}
