package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

type singleAllocationCmd struct {
	query    queryFlags
	mode     string
	risk     float64
	riskFree float64
}

func (*singleAllocationCmd) Name() string { return "single-allocation" }
func (*singleAllocationCmd) Synopsis() string {
	return "compute the allocation fraction for one instrument"
}
func (*singleAllocationCmd) Usage() string {
	return `single-allocation [-id | -symbol | -name] -risk <fraction> [-mode STD|LSV] [-risk-free <rate>]

  Computes the fraction of capital the drawdown-constrained strategy
  would allocate to the matched instrument, between 0 and 1.
`
}

func (c *singleAllocationCmd) SetFlags(f *flag.FlagSet) {
	c.query.register(f)
	f.StringVar(&c.mode, "mode", "STD", "Risk metric: STD or LSV")
	f.Float64Var(&c.risk, "risk", 0, "Accepted drawdown fraction (required)")
	f.Float64Var(&c.riskFree, "risk-free", 0, "Risk-free rate per interval")
}

func (c *singleAllocationCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	query, err := c.query.query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	mode, err := trading.ParseRiskMode(c.mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	if c.risk <= 0 || c.risk >= 1 {
		fmt.Fprintln(os.Stderr, "Error: -risk must be in (0, 1)")
		return subcommands.ExitUsageError
	}

	response, err := call(&rpc.GetSingleAllocationRequest{
		Query:    query,
		Mode:     mode,
		Risk:     c.risk,
		RiskFree: c.riskFree,
	})
	if err != nil {
		return fail(err)
	}

	allocationResponse, ok := response.(*rpc.SingleAllocationResponse)
	if !ok || allocationResponse.Allocation == nil {
		return noResponse()
	}

	fmt.Printf("%.6f\n", *allocationResponse.Allocation)
	return subcommands.ExitSuccess
}
