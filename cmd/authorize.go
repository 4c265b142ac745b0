package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type authorizeCmd struct{}

func (*authorizeCmd) Name() string     { return "authorize" }
func (*authorizeCmd) Synopsis() string { return "open a brokerage session" }
func (*authorizeCmd) Usage() string {
	return `authorize

  Asks the daemon to log in to the brokerage and resolve the account
  endpoints. Credentials come from the daemon's environment, never from
  the command line.
`
}

func (*authorizeCmd) SetFlags(f *flag.FlagSet) {}

func (c *authorizeCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	response, err := call(&rpc.AuthorizeRequest{})
	if err != nil {
		return fail(err)
	}
	if response != nil {
		fmt.Println("unexpected response")
		return subcommands.ExitFailure
	}

	fmt.Println("ok")
	return subcommands.ExitSuccess
}
