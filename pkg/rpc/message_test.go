package rpc

import (
	"reflect"
	"testing"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

func floatPtr(value float64) *float64 {
	return &value
}

func stringPtr(value string) *string {
	return &value
}

func categoryPtr(category trading.Category) *trading.Category {
	return &category
}

func testInstrument() *trading.Instrument {
	return &trading.Instrument{
		ID:             "332111",
		Symbol:         "MSFT",
		Name:           "Microsoft Corp",
		ISIN:           "US5949181045",
		Category:       trading.CategoryB,
		ProductType:    "STOCK",
		ExchangeID:     "663",
		ContractSize:   1,
		Active:         true,
		Tradable:       true,
		BuyOrderTypes:  []trading.OrderType{trading.OrderTypeLimit, trading.OrderTypeMarket},
		SellOrderTypes: []trading.OrderType{trading.OrderTypeLimit},
		ClosePrice:     420.5,
		ClosePriceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		MarketDataID:   "350015444",
	}
}

func TestRequestRoundTrip(t *testing.T) {
	tests := map[string]Request{
		"authorize": &AuthorizeRequest{},
		"fetch data all": &FetchDataRequest{},
		"fetch data one": &FetchDataRequest{ID: stringPtr("332111")},
		"get instrument": &GetInstrumentRequest{
			Query: trading.QuerySymbol("msft"),
		},
		"get financials": &GetFinancialsRequest{
			Query: trading.QueryID("332111"),
		},
		"get price series": &GetPriceSeriesRequest{
			Query: trading.QueryName("micro"),
		},
		"get single allocation": &GetSingleAllocationRequest{
			Query:    trading.QuerySymbol("msft"),
			Mode:     trading.RiskModeLSV,
			Risk:     0.3,
			RiskFree: 0.04,
		},
		"calculate portfolio sparse": &CalculatePortfolioRequest{
			Mode:      trading.RiskModeSTD,
			Risk:      0.25,
			RiskFree:  0.02,
			Freq:      12,
			Money:     10000,
			MaxStocks: 8,
		},
		"calculate portfolio full": &CalculatePortfolioRequest{
			Mode:                 trading.RiskModeLSV,
			Risk:                 0.3,
			RiskFree:             0.04,
			Freq:                 12,
			Money:                25000,
			MaxStocks:            10,
			MinRSI:               floatPtr(30),
			MaxRSI:               floatPtr(70),
			MinDrawdown:          floatPtr(0.05),
			MaxDrawdown:          floatPtr(0.4),
			MinCategory:          categoryPtr(trading.CategoryB),
			MaxCategory:          categoryPtr(trading.CategoryD),
			ShortSalesConstraint: true,
			MinROIC:              floatPtr(0.1),
			ROICWACCDelta:        floatPtr(0.02),
		},
		"recalculate stop loss": &RecalculateStopLossRequest{
			N:          2,
			MaxPercent: floatPtr(0.1),
		},
		"recalculate stop loss bare": &RecalculateStopLossRequest{N: 3},
		"get positions":              &GetPositionsRequest{},
		"get transactions": &GetTransactionsRequest{
			From: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		"get orders": &GetOrdersRequest{},
		"clean up":   &CleanUpRequest{},
	}

	for name, request := range tests {
		t.Run(name, func(t *testing.T) {
			payload, err := EncodeRequest(request)
			if err != nil {
				t.Fatalf("unexpected error: [%v]", err)
			}

			decoded, err := DecodeRequest(payload)
			if err != nil {
				t.Fatalf("unexpected error: [%v]", err)
			}

			if !reflect.DeepEqual(request, decoded) {
				t.Fatalf(
					"round trip mismatch:\nexpected: [%+v]\nactual:   [%+v]",
					request, decoded,
				)
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := map[string]Response{
		"instrument present": &InstrumentResponse{Instrument: testInstrument()},
		"instrument absent":  &InstrumentResponse{},
		"financials": &FinancialsResponse{
			Report: &trading.FinancialReport{
				InstrumentID: "332111",
				Currency:     "USD",
				Annual: []trading.AnnualFigures{
					{
						Year:        2023,
						Revenue:     211_900_000_000,
						NetIncome:   72_360_000_000,
						TotalDebt:   47_030_000_000,
						TotalEquity: 206_220_000_000,
					},
				},
			},
			Ratios: &trading.CompanyRatios{
				InstrumentID:                 "332111",
				Currency:                     "USD",
				ReturnOnInvestedCapital:      0.28,
				WeightedAverageCostOfCapital: 0.09,
				PriceEarnings:                35.2,
				MarketCap:                    3_100_000_000_000,
			},
		},
		"financials absent": &FinancialsResponse{},
		"price series": &PriceSeriesResponse{
			Series: &trading.PriceSeries{
				InstrumentID: "332111",
				Symbol:       "MSFT",
				Resolution:   trading.PeriodMonth,
				Candles: []trading.Candle{
					{
						Time:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
						Open:  155.1,
						High:  167.8,
						Low:   152.0,
						Close: 165.3,
					},
				},
			},
		},
		"single allocation": &SingleAllocationResponse{Allocation: floatPtr(0.42)},
		"single allocation absent": &SingleAllocationResponse{},
		"portfolio":          &PortfolioResponse{Table: stringPtr("symbol\tweight\n")},
		"portfolio absent":   &PortfolioResponse{},
		"stop loss":          &StopLossResponse{Table: stringPtr("MSFT\t390.2\n")},
		"positions": &PositionsResponse{
			Positions: []trading.Position{
				{
					InstrumentID:   "332111",
					Type:           trading.PositionTypeProduct,
					Size:           10,
					Price:          420.5,
					Value:          4205,
					Currency:       "USD",
					BreakEvenPrice: 380.1,
				},
			},
		},
		"transactions": &TransactionsResponse{
			Transactions: []trading.Transaction{
				{
					ID:           991,
					InstrumentID: "332111",
					Side:         trading.OrderSideBuy,
					Date:         time.Date(2023, 6, 12, 14, 30, 0, 0, time.UTC),
					Price:        331.2,
					Quantity:     5,
					Total:        -1656,
					TotalInBase:  -1532.9,
					FeesInBase:   -2,
					Venue:        "XNAS",
				},
			},
		},
		"orders": &OrdersResponse{
			Orders: []trading.Order{
				{
					ID:           "order-1",
					InstrumentID: "332111",
					Symbol:       "MSFT",
					Side:         trading.OrderSideSell,
					Type:         trading.OrderTypeStopLoss,
					Price:        0,
					StopPrice:    390.2,
					Size:         10,
					Currency:     "USD",
					Created:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
				},
			},
		},
		"clean up": &CleanUpResponse{Deleted: 3},
	}

	for name, response := range tests {
		t.Run(name, func(t *testing.T) {
			payload, err := EncodeResponse(response)
			if err != nil {
				t.Fatalf("unexpected error: [%v]", err)
			}

			decoded, err := DecodeResponse(payload)
			if err != nil {
				t.Fatalf("unexpected error: [%v]", err)
			}

			if !reflect.DeepEqual(response, decoded) {
				t.Fatalf(
					"round trip mismatch:\nexpected: [%+v]\nactual:   [%+v]",
					response, decoded,
				)
			}
		})
	}
}

func TestAbsentResponseRoundTrip(t *testing.T) {
	payload, err := EncodeResponse(nil)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if len(payload) != 1 || payload[0] != 0 {
		t.Fatalf("expected single absent marker byte, got [%v]", payload)
	}

	decoded, err := DecodeResponse(payload)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if decoded != nil {
		t.Fatalf("expected nil response, got [%+v]", decoded)
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	payload, err := EncodeRequest(&GetInstrumentRequest{
		Query: trading.QuerySymbol("msft"),
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if _, err := DecodeRequest(payload[:len(payload)-2]); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	payload, err := EncodeRequest(&AuthorizeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	payload = append(payload, 0xFF)

	if _, err := DecodeRequest(payload); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeRequest([]byte{0xEE}); err == nil {
		t.Fatalf("expected error for unknown tag")
	}
}
