package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

type calculatePortfolioCmd struct {
	mode      string
	risk      float64
	riskFree  float64
	freq      uint
	money     float64
	maxStocks uint

	minRSI      optionalFloat
	maxRSI      optionalFloat
	minDrawdown optionalFloat
	maxDrawdown optionalFloat
	minClass    string
	maxClass    string

	shortSalesConstraint bool
	minROIC              optionalFloat
	roicWACCDelta        optionalFloat
}

func (*calculatePortfolioCmd) Name() string { return "calculate-portfolio" }
func (*calculatePortfolioCmd) Synopsis() string {
	return "compute a portfolio allocation over the tracked assets"
}
func (*calculatePortfolioCmd) Usage() string {
	return `calculate-portfolio -risk <fraction> -freq <n> -money <amount> -max-stocks <n> [filters...]

  Screens the tracked assets and solves the drawdown-constrained
  allocation over the survivors, printing the resulting plan as a table.

  Filters: -min-rsi, -max-rsi, -min-dd, -max-dd, -min-class, -max-class,
  -min-roic, -roic-wacc-delta, -short-sales-constraint.
`
}

func (c *calculatePortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", "STD", "Risk metric: STD or LSV")
	f.Float64Var(&c.risk, "risk", 0, "Accepted drawdown fraction (required)")
	f.Float64Var(&c.riskFree, "risk-free", 0, "Risk-free rate per interval")
	f.UintVar(&c.freq, "freq", 12, "Observations per allocation window")
	f.Float64Var(&c.money, "money", 0, "Capital to allocate (required)")
	f.UintVar(&c.maxStocks, "max-stocks", 0, "Portfolio size bound (required)")

	f.Var(&c.minRSI, "min-rsi", "Minimum relative strength index")
	f.Var(&c.maxRSI, "max-rsi", "Maximum relative strength index")
	f.Var(&c.minDrawdown, "min-dd", "Minimum average drawdown")
	f.Var(&c.maxDrawdown, "max-dd", "Maximum average drawdown")
	f.StringVar(&c.minClass, "min-class", "", "Minimum product category")
	f.StringVar(&c.maxClass, "max-class", "", "Maximum product category")

	f.BoolVar(
		&c.shortSalesConstraint, "short-sales-constraint", false,
		"Forbid short positions",
	)
	f.Var(&c.minROIC, "min-roic", "Minimum return on invested capital")
	f.Var(
		&c.roicWACCDelta, "roic-wacc-delta",
		"Required ROIC excess over the cost of capital",
	)
}

func (c *calculatePortfolioCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	request, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	response, err := call(request)
	if err != nil {
		return fail(err)
	}

	portfolioResponse, ok := response.(*rpc.PortfolioResponse)
	if !ok || portfolioResponse.Table == nil {
		return noResponse()
	}

	fmt.Println(*portfolioResponse.Table)
	return subcommands.ExitSuccess
}

func (c *calculatePortfolioCmd) request() (
	*rpc.CalculatePortfolioRequest,
	error,
) {
	mode, err := trading.ParseRiskMode(c.mode)
	if err != nil {
		return nil, err
	}

	if c.risk <= 0 || c.risk >= 1 {
		return nil, fmt.Errorf("-risk must be in (0, 1)")
	}
	if c.money <= 0 {
		return nil, fmt.Errorf("-money must be positive")
	}
	if c.maxStocks == 0 {
		return nil, fmt.Errorf("-max-stocks must be positive")
	}

	request := &rpc.CalculatePortfolioRequest{
		Mode:                 mode,
		Risk:                 c.risk,
		RiskFree:             c.riskFree,
		Freq:                 uint32(c.freq),
		Money:                c.money,
		MaxStocks:            uint32(c.maxStocks),
		MinRSI:               c.minRSI.pointer(),
		MaxRSI:               c.maxRSI.pointer(),
		MinDrawdown:          c.minDrawdown.pointer(),
		MaxDrawdown:          c.maxDrawdown.pointer(),
		ShortSalesConstraint: c.shortSalesConstraint,
		MinROIC:              c.minROIC.pointer(),
		ROICWACCDelta:        c.roicWACCDelta.pointer(),
	}

	if c.minClass != "" {
		category, err := trading.ParseCategory(c.minClass)
		if err != nil {
			return nil, err
		}
		request.MinCategory = &category
	}
	if c.maxClass != "" {
		category, err := trading.ParseCategory(c.maxClass)
		if err != nil {
			return nil, err
		}
		request.MaxCategory = &category
	}

	return request, nil
}

// optionalFloat is a flag.Value that remembers whether it was set, so unset
// filters travel as nil instead of zero.
type optionalFloat struct {
	value float64
	set   bool
}

func (of *optionalFloat) String() string {
	if !of.set {
		return ""
	}
	return fmt.Sprintf("%v", of.value)
}

func (of *optionalFloat) Set(raw string) error {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("could not parse [%v] as a number", raw)
	}
	of.value = value
	of.set = true
	return nil
}

func (of *optionalFloat) pointer() *float64 {
	if !of.set {
		return nil
	}
	value := of.value
	return &value
}
