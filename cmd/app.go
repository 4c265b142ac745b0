// Package cmd implements the CLI front-end of the daemon. Every subcommand
// maps to one request: it opens one connection, sends the request, prints
// the response and exits.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&authorizeCmd{}, "session")

	c.Register(&fetchDataCmd{}, "data")
	c.Register(&getProductCmd{}, "data")
	c.Register(&getCandlesCmd{}, "data")
	c.Register(&getFinancialsCmd{}, "data")
	c.Register(&cleanUpCmd{}, "data")

	c.Register(&singleAllocationCmd{}, "portfolio")
	c.Register(&calculatePortfolioCmd{}, "portfolio")
	c.Register(&recalculateStopLossCmd{}, "portfolio")

	c.Register(&getPositionsCmd{}, "account")
	c.Register(&getTransactionsCmd{}, "account")
	c.Register(&getOrdersCmd{}, "account")
}

var address = flag.String(
	"address", "127.0.0.1:9123", "Address of the daemon's RPC listener",
)

// call sends one request to the daemon and returns its response; a nil
// response means the daemon had nothing to say.
func call(request rpc.Request) (rpc.Response, error) {
	return rpc.NewClient(*address).Call(request)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func noResponse() subcommands.ExitStatus {
	fmt.Println("no response")
	return subcommands.ExitSuccess
}

// queryFlags is the id/symbol/name selector shared by the lookup commands.
// Exactly one of the three must be set.
type queryFlags struct {
	id     string
	symbol string
	name   string
}

func (qf *queryFlags) register(f *flag.FlagSet) {
	f.StringVar(&qf.id, "id", "", "Instrument id")
	f.StringVar(&qf.symbol, "symbol", "", "Instrument symbol (exact match)")
	f.StringVar(&qf.name, "name", "", "Instrument name (substring match)")
}

func (qf *queryFlags) query() (trading.Query, error) {
	set := 0
	for _, value := range []string{qf.id, qf.symbol, qf.name} {
		if value != "" {
			set++
		}
	}
	if set != 1 {
		return trading.Query{}, fmt.Errorf(
			"exactly one of -id, -symbol or -name is required",
		)
	}

	switch {
	case qf.id != "":
		return trading.QueryID(qf.id), nil
	case qf.symbol != "":
		return trading.QuerySymbol(qf.symbol), nil
	default:
		return trading.QueryName(qf.name), nil
	}
}
