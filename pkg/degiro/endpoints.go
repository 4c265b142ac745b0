package degiro

import (
	"context"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type accountConfigResponse struct {
	Data struct {
		ClientID               int64  `json:"clientId"`
		PaURL                  string `json:"paUrl"`
		ProductSearchURL       string `json:"productSearchUrl"`
		TradingURL             string `json:"tradingUrl"`
		ReportingURL           string `json:"reportingUrl"`
		FinancialStatementsURL string `json:"refinitivFinancialStatementsUrl"`
		CompanyRatiosURL       string `json:"refinitivCompanyRatiosUrl"`
	} `json:"data"`
}

// resolveEndpoints fetches the account config and atomically installs the
// derived endpoint map and the user token. The call authenticates through
// the session cookie set by login.
func (c *Client) resolveEndpoints(ctx context.Context) error {
	var decoded accountConfigResponse
	err := c.getJSON(ctx, joinURL(c.baseURL, accountConfigPath), nil, &decoded)
	if err != nil {
		return err
	}

	resolved := endpoints{
		accountURL:             decoded.Data.PaURL,
		productSearchURL:       decoded.Data.ProductSearchURL,
		tradingURL:             decoded.Data.TradingURL,
		reportingURL:           decoded.Data.ReportingURL,
		financialStatementsURL: decoded.Data.FinancialStatementsURL,
		companyRatiosURL:       decoded.Data.CompanyRatiosURL,
	}

	if !resolved.complete() || decoded.Data.ClientID == 0 {
		return &trading.DecodeError{Entity: "account config", Field: "data"}
	}

	c.sessionMutex.Lock()
	c.endpoints = resolved
	c.userToken = decoded.Data.ClientID
	c.sessionMutex.Unlock()

	c.logger.Debugf("resolved account endpoints")

	return nil
}
