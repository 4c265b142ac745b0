package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type fetchDataCmd struct {
	id string
}

func (*fetchDataCmd) Name() string { return "fetch-data" }
func (*fetchDataCmd) Synopsis() string {
	return "refresh the persisted data of tracked assets"
}
func (*fetchDataCmd) Usage() string {
	return `fetch-data [-id <id>]

  Asks the daemon to download and persist the instrument, price history
  and financial reports of one asset, or of every tracked asset when no
  id is given. The fetch runs in the background; the command returns
  immediately.
`
}

func (c *fetchDataCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Instrument id; empty means all tracked assets")
}

func (c *fetchDataCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	request := &rpc.FetchDataRequest{}
	if c.id != "" {
		request.ID = &c.id
	}

	if _, err := call(request); err != nil {
		return fail(err)
	}

	fmt.Println("ok")
	return subcommands.ExitSuccess
}
