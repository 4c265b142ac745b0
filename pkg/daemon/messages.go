package daemon

import (
	"time"

	"github.com/vogelsang/vogelsang/pkg/calc"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Gateway messages.

type authorizeCall struct{}

type fetchDataCall struct {
	id   string
	name string
}

type fetchAllDataCall struct{}

type positionsCall struct{}

type ordersCall struct{}

type transactionsCall struct {
	from time.Time
	to   time.Time
}

// Cache messages. Writes are handled sequentially, reads concurrently.

type putInstrumentCall struct {
	instrument *trading.Instrument
}

type putSeriesCall struct {
	series *trading.PriceSeries
}

type putReportCall struct {
	report *trading.FinancialReport
}

type putRatiosCall struct {
	ratios *trading.CompanyRatios
}

type deleteAssetDataCall struct {
	id string
}

// cleanUpCall removes every persisted id that is not in the tracked set.
// The reply is the number of removed ids.
type cleanUpCall struct {
	tracked map[string]struct{}
}

type getInstrumentCall struct {
	query trading.Query
}

type getSeriesCall struct {
	query trading.Query
}

type getReportCall struct {
	query trading.Query
}

type getRatiosCall struct {
	query trading.Query
}

// Settings messages.

type listAssetsCall struct{}

type addAssetCall struct {
	id   string
	name string
}

type deleteAssetCall struct {
	id string
}

// Calculator messages.

type singleAllocationCall struct {
	query    trading.Query
	mode     trading.RiskMode
	risk     float64
	riskFree float64
}

type portfolioPlanCall struct {
	constraints calc.Constraints
}

type stopLossCall struct {
	n          int
	maxPercent *float64
}
