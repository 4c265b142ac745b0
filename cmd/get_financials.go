package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getFinancialsCmd struct {
	query queryFlags
}

func (*getFinancialsCmd) Name() string { return "get-financials" }
func (*getFinancialsCmd) Synopsis() string {
	return "print the cached financial reports of an instrument"
}
func (*getFinancialsCmd) Usage() string {
	return `get-financials [-id <id> | -symbol <symbol> | -name <name>]

  Prints the cached financial statements and company ratios of the
  matched instrument.
`
}

func (c *getFinancialsCmd) SetFlags(f *flag.FlagSet) {
	c.query.register(f)
}

func (c *getFinancialsCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	query, err := c.query.query()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	response, err := call(&rpc.GetFinancialsRequest{Query: query})
	if err != nil {
		return fail(err)
	}

	financialsResponse, ok := response.(*rpc.FinancialsResponse)
	if !ok ||
		(financialsResponse.Report == nil && financialsResponse.Ratios == nil) {
		return noResponse()
	}

	renderFinancials(financialsResponse.Report, financialsResponse.Ratios)
	return subcommands.ExitSuccess
}
