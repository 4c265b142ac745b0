package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type recalculateStopLossCmd struct {
	n          uint
	maxPercent optionalFloat
}

func (*recalculateStopLossCmd) Name() string { return "recalculate-sl" }
func (*recalculateStopLossCmd) Synopsis() string {
	return "recompute stop-loss levels for the open positions"
}
func (*recalculateStopLossCmd) Usage() string {
	return `recalculate-sl [-n <multiplier>] [-max-percent <fraction>]

  Prints a stop-loss level per open long position: the last close
  discounted by n times the average drawdown, optionally capped at
  max-percent of the price.
`
}

func (c *recalculateStopLossCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.n, "n", 3, "Average drawdown multiplier")
	f.Var(&c.maxPercent, "max-percent", "Cap on the discount fraction")
}

func (c *recalculateStopLossCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	response, err := call(&rpc.RecalculateStopLossRequest{
		N:          uint32(c.n),
		MaxPercent: c.maxPercent.pointer(),
	})
	if err != nil {
		return fail(err)
	}

	stopLossResponse, ok := response.(*rpc.StopLossResponse)
	if !ok || stopLossResponse.Table == nil {
		return noResponse()
	}

	fmt.Println(*stopLossResponse.Table)
	return subcommands.ExitSuccess
}
