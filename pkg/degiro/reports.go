package degiro

import (
	"context"
	"net/url"
	"strconv"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type financialStatementsResponse struct {
	Data struct {
		Currency string `json:"currency"`
		Annual   []struct {
			FiscalYear  int     `json:"fiscalYear"`
			Revenue     float64 `json:"revenue"`
			NetIncome   float64 `json:"netIncome"`
			TotalDebt   float64 `json:"totalDebt"`
			TotalEquity float64 `json:"totalEquity"`
		} `json:"annual"`
	} `json:"data"`
}

// FinancialReport returns the financial statements summary of the
// instrument. The report endpoint addresses companies by ISIN.
func (c *Client) FinancialReport(
	ctx context.Context,
	id string,
	isin string,
) (*trading.FinancialReport, error) {
	var report *trading.FinancialReport

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			sessionID, _, account, resolved := c.session()
			if resolved.financialStatementsURL == "" {
				return &trading.UpstreamError{Status: 0, Path: "financial statements"}
			}

			query := url.Values{}
			query.Set("sessionId", sessionID)
			query.Set("intAccount", strconv.Itoa(account.IntAccount))

			var decoded financialStatementsResponse
			err := c.getJSON(
				ctx,
				joinURL(resolved.financialStatementsURL, isin),
				query,
				&decoded,
			)
			if err != nil {
				return err
			}

			report = &trading.FinancialReport{
				InstrumentID: id,
				Currency:     decoded.Data.Currency,
			}
			for _, year := range decoded.Data.Annual {
				report.Annual = append(report.Annual, trading.AnnualFigures{
					Year:        year.FiscalYear,
					Revenue:     year.Revenue,
					NetIncome:   year.NetIncome,
					TotalDebt:   year.TotalDebt,
					TotalEquity: year.TotalEquity,
				})
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return report, nil
}

type companyRatiosResponse struct {
	Data struct {
		Currency                     string  `json:"currency"`
		ReturnOnInvestedCapital      float64 `json:"returnOnInvestedCapital"`
		WeightedAverageCostOfCapital float64 `json:"weightedAverageCostOfCapital"`
		PriceEarnings                float64 `json:"priceEarnings"`
		MarketCap                    float64 `json:"marketCap"`
	} `json:"data"`
}

// CompanyRatios returns the derived company metrics of the instrument.
func (c *Client) CompanyRatios(
	ctx context.Context,
	id string,
	isin string,
) (*trading.CompanyRatios, error) {
	var ratios *trading.CompanyRatios

	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error {
			sessionID, _, account, resolved := c.session()
			if resolved.companyRatiosURL == "" {
				return &trading.UpstreamError{Status: 0, Path: "company ratios"}
			}

			query := url.Values{}
			query.Set("sessionId", sessionID)
			query.Set("intAccount", strconv.Itoa(account.IntAccount))

			var decoded companyRatiosResponse
			err := c.getJSON(
				ctx,
				joinURL(resolved.companyRatiosURL, isin),
				query,
				&decoded,
			)
			if err != nil {
				return err
			}

			ratios = &trading.CompanyRatios{
				InstrumentID:                 id,
				Currency:                     decoded.Data.Currency,
				ReturnOnInvestedCapital:      decoded.Data.ReturnOnInvestedCapital,
				WeightedAverageCostOfCapital: decoded.Data.WeightedAverageCostOfCapital,
				PriceEarnings:                decoded.Data.PriceEarnings,
				MarketCap:                    decoded.Data.MarketCap,
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return ratios, nil
}
