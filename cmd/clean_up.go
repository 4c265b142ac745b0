package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type cleanUpCmd struct{}

func (*cleanUpCmd) Name() string { return "clean-up" }
func (*cleanUpCmd) Synopsis() string {
	return "remove untracked assets from the store"
}
func (*cleanUpCmd) Usage() string {
	return `clean-up

  Removes from the store every asset that is no longer on the tracked
  list and prints how many were removed.
`
}

func (*cleanUpCmd) SetFlags(f *flag.FlagSet) {}

func (c *cleanUpCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	response, err := call(&rpc.CleanUpRequest{})
	if err != nil {
		return fail(err)
	}

	cleanUpResponse, ok := response.(*rpc.CleanUpResponse)
	if !ok {
		return noResponse()
	}

	fmt.Printf("removed %v assets\n", cleanUpResponse.Deleted)
	return subcommands.ExitSuccess
}
