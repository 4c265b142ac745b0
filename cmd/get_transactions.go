package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getTransactionsCmd struct {
	from string
	to   string
}

func (*getTransactionsCmd) Name() string { return "get-transactions" }
func (*getTransactionsCmd) Synopsis() string {
	return "print the transaction history of a date range"
}
func (*getTransactionsCmd) Usage() string {
	return `get-transactions -from <yyyy-mm-dd> -to <yyyy-mm-dd>

  Prints the trade confirmations booked in the given date range.
`
}

func (c *getTransactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Range start, yyyy-mm-dd (required)")
	f.StringVar(&c.to, "to", "", "Range end, yyyy-mm-dd (required)")
}

func (c *getTransactionsCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	from, err := time.Parse(dateLayout, c.from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not parse -from: %v\n", err)
		return subcommands.ExitUsageError
	}

	to, err := time.Parse(dateLayout, c.to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not parse -to: %v\n", err)
		return subcommands.ExitUsageError
	}

	response, err := call(&rpc.GetTransactionsRequest{From: from, To: to})
	if err != nil {
		return fail(err)
	}

	transactionsResponse, ok := response.(*rpc.TransactionsResponse)
	if !ok {
		return noResponse()
	}

	renderTransactions(transactionsResponse.Transactions)
	return subcommands.ExitSuccess
}
