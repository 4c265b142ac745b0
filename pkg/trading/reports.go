package trading

// AnnualFigures is one decoded yearly row of a financial statement report.
type AnnualFigures struct {
	Year        int     `json:"year"`
	Revenue     float64 `json:"revenue"`
	NetIncome   float64 `json:"netIncome"`
	TotalDebt   float64 `json:"totalDebt"`
	TotalEquity float64 `json:"totalEquity"`
}

// FinancialReport is the financial statements summary of one instrument.
type FinancialReport struct {
	InstrumentID string          `json:"instrumentId"`
	Currency     string          `json:"currency"`
	Annual       []AnnualFigures `json:"annual"`
}

// CompanyRatios is the derived company metrics report of one instrument.
type CompanyRatios struct {
	InstrumentID                 string  `json:"instrumentId"`
	Currency                     string  `json:"currency"`
	ReturnOnInvestedCapital      float64 `json:"returnOnInvestedCapital"`
	WeightedAverageCostOfCapital float64 `json:"weightedAverageCostOfCapital"`
	PriceEarnings                float64 `json:"priceEarnings"`
	MarketCap                    float64 `json:"marketCap"`
}
