package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/pkg/rpc"
)

type getOrdersCmd struct{}

func (*getOrdersCmd) Name() string     { return "get-orders" }
func (*getOrdersCmd) Synopsis() string { return "print the pending orders" }
func (*getOrdersCmd) Usage() string {
	return `get-orders

  Prints the pending orders as reported by the brokerage.
`
}

func (*getOrdersCmd) SetFlags(f *flag.FlagSet) {}

func (c *getOrdersCmd) Execute(
	_ context.Context,
	f *flag.FlagSet,
	_ ...interface{},
) subcommands.ExitStatus {
	response, err := call(&rpc.GetOrdersRequest{})
	if err != nil {
		return fail(err)
	}

	ordersResponse, ok := response.(*rpc.OrdersResponse)
	if !ok {
		return noResponse()
	}

	renderOrders(ordersResponse.Orders)
	return subcommands.ExitSuccess
}
