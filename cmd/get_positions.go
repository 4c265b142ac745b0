package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getPositionsCmd struct{}

func (*getPositionsCmd) Name() string     { return "get-positions" }
func (*getPositionsCmd) Synopsis() string { return "print the open positions" }
func (*getPositionsCmd) Usage() string {
	return `get-positions

  Prints the current portfolio positions as reported by the brokerage.
`
}

func (*getPositionsCmd) SetFlags(f *flag.FlagSet) {}

func (c *getPositionsCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	response, err := call(&rpc.GetPositionsRequest{})
	if err != nil {
		return fail(err)
	}

	positionsResponse, ok := response.(*rpc.PositionsResponse)
	if !ok {
		return noResponse()
	}

	renderPositions(positionsResponse.Positions)
	return subcommands.ExitSuccess
}
