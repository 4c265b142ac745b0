package daemon

import (
	"context"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/calc"
	"github.com/vogelsang/vogelsang/pkg/rpc"
	"github.com/vogelsang/vogelsang/pkg/settings"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// dispatcher routes decoded wire requests into the actor tree. A nil return
// is the absent marker: a valid terminal reply for commands with no payload.
type dispatcher struct {
	gateway    *actor.Ref
	cache      *actor.Ref
	settings   *actor.Ref
	calculator *actor.Ref
	logger     trading.Logger
}

func (d *dispatcher) Dispatch(
	ctx context.Context,
	request rpc.Request,
) rpc.Response {
	switch req := request.(type) {
	case *rpc.AuthorizeRequest:
		if _, err := d.gateway.Ask(ctx, authorizeCall{}); err != nil {
			d.logger.Errorf("could not authorize: [%v]", err)
		}
		return nil

	case *rpc.FetchDataRequest:
		d.fetchData(ctx, req)
		return nil

	case *rpc.GetInstrumentRequest:
		reply, err := d.cache.Ask(ctx, getInstrumentCall{query: req.Query})
		if err != nil {
			d.logger.Errorf("could not get instrument: [%v]", err)
		}
		instrument, _ := reply.(*trading.Instrument)
		return &rpc.InstrumentResponse{Instrument: instrument}

	case *rpc.GetFinancialsRequest:
		response := &rpc.FinancialsResponse{}

		reply, err := d.cache.Ask(ctx, getReportCall{query: req.Query})
		if err != nil {
			d.logger.Errorf("could not get financial report: [%v]", err)
		}
		response.Report, _ = reply.(*trading.FinancialReport)

		reply, err = d.cache.Ask(ctx, getRatiosCall{query: req.Query})
		if err != nil {
			d.logger.Errorf("could not get company ratios: [%v]", err)
		}
		response.Ratios, _ = reply.(*trading.CompanyRatios)

		return response

	case *rpc.GetPriceSeriesRequest:
		reply, err := d.cache.Ask(ctx, getSeriesCall{query: req.Query})
		if err != nil {
			d.logger.Errorf("could not get price series: [%v]", err)
		}
		series, _ := reply.(*trading.PriceSeries)
		return &rpc.PriceSeriesResponse{Series: series}

	case *rpc.GetSingleAllocationRequest:
		message := singleAllocationCall{
			query:    req.Query,
			mode:     req.Mode,
			risk:     req.Risk,
			riskFree: req.RiskFree,
		}
		reply, err := d.calculator.Ask(ctx, message)
		if err != nil {
			d.logger.Errorf("could not calculate allocation: [%v]", err)
		}
		allocation, _ := reply.(*float64)
		return &rpc.SingleAllocationResponse{Allocation: allocation}

	case *rpc.CalculatePortfolioRequest:
		message := portfolioPlanCall{constraints: planConstraints(req)}
		reply, err := d.calculator.Ask(ctx, message)
		if err != nil {
			d.logger.Errorf("could not calculate portfolio: [%v]", err)
			return &rpc.PortfolioResponse{}
		}
		table, _ := reply.(string)
		return &rpc.PortfolioResponse{Table: &table}

	case *rpc.RecalculateStopLossRequest:
		message := stopLossCall{n: int(req.N), maxPercent: req.MaxPercent}
		reply, err := d.calculator.Ask(ctx, message)
		if err != nil {
			d.logger.Errorf("could not recalculate stop losses: [%v]", err)
			return &rpc.StopLossResponse{}
		}
		table, _ := reply.(string)
		return &rpc.StopLossResponse{Table: &table}

	case *rpc.GetPositionsRequest:
		reply, err := d.gateway.Ask(ctx, positionsCall{})
		if err != nil {
			d.logger.Errorf("could not get positions: [%v]", err)
		}
		positions, _ := reply.([]trading.Position)
		return &rpc.PositionsResponse{Positions: positions}

	case *rpc.GetTransactionsRequest:
		message := transactionsCall{from: req.From, to: req.To}
		reply, err := d.gateway.Ask(ctx, message)
		if err != nil {
			d.logger.Errorf("could not get transactions: [%v]", err)
		}
		transactions, _ := reply.([]trading.Transaction)
		return &rpc.TransactionsResponse{Transactions: transactions}

	case *rpc.GetOrdersRequest:
		reply, err := d.gateway.Ask(ctx, ordersCall{})
		if err != nil {
			d.logger.Errorf("could not get orders: [%v]", err)
		}
		orders, _ := reply.([]trading.Order)
		return &rpc.OrdersResponse{Orders: orders}

	case *rpc.CleanUpRequest:
		return d.cleanUp(ctx)

	default:
		d.logger.Warningf("unhandled request [%T]", request)
		return nil
	}
}

func (d *dispatcher) fetchData(ctx context.Context, req *rpc.FetchDataRequest) {
	var message interface{} = fetchAllDataCall{}
	if req.ID != nil {
		message = fetchDataCall{id: *req.ID}
	}

	if err := d.gateway.Tell(ctx, message); err != nil {
		d.logger.Errorf("could not submit fetch: [%v]", err)
	}
}

// cleanUp reads the tracked set from the settings actor and asks the cache
// to drop everything outside it.
func (d *dispatcher) cleanUp(ctx context.Context) rpc.Response {
	reply, err := d.settings.Ask(ctx, listAssetsCall{})
	if err != nil {
		d.logger.Errorf("could not list assets: [%v]", err)
		return &rpc.CleanUpResponse{}
	}

	assets, ok := reply.([]settings.Asset)
	if !ok {
		d.logger.Errorf("unexpected assets reply [%T]", reply)
		return &rpc.CleanUpResponse{}
	}

	tracked := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		tracked[asset.ID] = struct{}{}
	}

	reply, err = d.cache.Ask(ctx, cleanUpCall{tracked: tracked})
	if err != nil {
		d.logger.Errorf("could not clean up store: [%v]", err)
		return &rpc.CleanUpResponse{}
	}

	deleted, _ := reply.(int)
	return &rpc.CleanUpResponse{Deleted: uint32(deleted)}
}

func planConstraints(req *rpc.CalculatePortfolioRequest) calc.Constraints {
	return calc.Constraints{
		Mode:                 req.Mode,
		Risk:                 req.Risk,
		RiskFree:             req.RiskFree,
		Freq:                 int(req.Freq),
		Money:                req.Money,
		MaxStocks:            int(req.MaxStocks),
		MinRSI:               req.MinRSI,
		MaxRSI:               req.MaxRSI,
		MinDrawdown:          req.MinDrawdown,
		MaxDrawdown:          req.MaxDrawdown,
		MinCategory:          req.MinCategory,
		MaxCategory:          req.MaxCategory,
		ShortSalesConstraint: req.ShortSalesConstraint,
		MinROIC:              req.MinROIC,
		ROICWACCDelta:        req.ROICWACCDelta,
	}
}
