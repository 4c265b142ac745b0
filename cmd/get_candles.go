package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getCandlesCmd struct {
	query queryFlags
}

func (*getCandlesCmd) Name() string { return "get-candles" }
func (*getCandlesCmd) Synopsis() string {
	return "print the cached price history of an instrument"
}
func (*getCandlesCmd) Usage() string {
	return `get-candles [-id <id> | -symbol <symbol> | -name <name>]

  Prints the cached monthly price history of the matched instrument.
`
}

func (c *getCandlesCmd) SetFlags(f *flag.FlagSet) {
	c.query.register(f)
}

func (c *getCandlesCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	query, err := c.query.query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	response, err := call(&rpc.GetPriceSeriesRequest{Query: query})
	if err != nil {
		return fail(err)
	}

	seriesResponse, ok := response.(*rpc.PriceSeriesResponse)
	if !ok || seriesResponse.Series == nil {
		return noResponse()
	}

	renderSeries(seriesResponse.Series)
	return subcommands.ExitSuccess
}
