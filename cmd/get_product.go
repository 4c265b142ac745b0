package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getProductCmd struct {
	query queryFlags
}

func (*getProductCmd) Name() string { return "get-product" }
func (*getProductCmd) Synopsis() string {
	return "print a cached instrument"
}
func (*getProductCmd) Usage() string {
	return `get-product [-id <id> | -symbol <symbol> | -name <name>]

  Prints the cached instrument matched by id, exact symbol or name
  substring. Run fetch-data first to populate the cache.
`
}

func (c *getProductCmd) SetFlags(f *flag.FlagSet) {
	c.query.register(f)
}

func (c *getProductCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	query, err := c.query.query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	response, err := call(&rpc.GetInstrumentRequest{Query: query})
	if err != nil {
		return fail(err)
	}

	instrumentResponse, ok := response.(*rpc.InstrumentResponse)
	if !ok || instrumentResponse.Instrument == nil {
		return noResponse()
	}

	renderInstrument(instrumentResponse.Instrument)
	return subcommands.ExitSuccess
}
