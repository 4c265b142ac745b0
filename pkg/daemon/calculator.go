package daemon

import (
	"context"
	"fmt"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/calc"
	"github.com/vogelsang/vogelsang/pkg/settings"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// calculatorHandler is stateless: every message gathers its inputs from the
// cache (and the gateway for live positions) and runs the pure math.
type calculatorHandler struct {
	gateway  *actor.Ref
	cache    *actor.Ref
	settings *actor.Ref
	logger   trading.Logger
}

func newCalculatorConstructor(
	gateway, cache, settingsRef *actor.Ref,
	logger trading.Logger,
) actor.Constructor {
	return func(self *actor.Ref) (actor.Handler, error) {
		return &calculatorHandler{
			gateway:  gateway,
			cache:    cache,
			settings: settingsRef,
			logger:   logger.WithField("actor", "calculator"),
		}, nil
	}
}

func (ch *calculatorHandler) HandlesConcurrently(message interface{}) bool {
	return true
}

func (ch *calculatorHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	switch msg := message.(type) {
	case singleAllocationCall:
		return ch.singleAllocation(ctx, msg)
	case portfolioPlanCall:
		return ch.portfolioPlan(ctx, msg.constraints)
	case stopLossCall:
		return ch.stopLoss(ctx, msg)
	default:
		return nil, fmt.Errorf("unexpected message [%T]", message)
	}
}

// singleAllocation replies with a nil pointer when the queried series is
// not cached; that surfaces as an absent payload on the wire.
func (ch *calculatorHandler) singleAllocation(
	ctx context.Context,
	msg singleAllocationCall,
) (*float64, error) {
	series, err := ch.askSeries(ctx, msg.query)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, nil
	}

	allocation, err := calc.SingleAllocation(
		series,
		msg.mode,
		msg.risk,
		msg.riskFree,
		trading.PeriodYear,
		trading.PeriodMonth,
	)
	if err != nil {
		return nil, fmt.Errorf("could not calculate allocation: [%v]", err)
	}

	return &allocation, nil
}

func (ch *calculatorHandler) portfolioPlan(
	ctx context.Context,
	constraints calc.Constraints,
) (string, error) {
	reply, err := ch.settings.Ask(ctx, listAssetsCall{})
	if err != nil {
		return "", fmt.Errorf("could not list assets: [%v]", err)
	}

	assets, ok := reply.([]settings.Asset)
	if !ok {
		return "", fmt.Errorf("unexpected assets reply [%T]", reply)
	}

	inputs := make([]*calc.Input, 0, len(assets))
	for _, asset := range assets {
		query := trading.QueryID(asset.ID)

		instrument, err := ch.askInstrument(ctx, query)
		if err != nil {
			return "", err
		}

		series, err := ch.askSeries(ctx, query)
		if err != nil {
			return "", err
		}

		report, err := ch.askReport(ctx, query)
		if err != nil {
			return "", err
		}

		ratios, err := ch.askRatios(ctx, query)
		if err != nil {
			return "", err
		}

		inputs = append(inputs, &calc.Input{
			Instrument: instrument,
			Series:     series,
			Report:     report,
			Ratios:     ratios,
		})
	}

	table, err := calc.Plan(inputs, constraints)
	if err != nil {
		return "", fmt.Errorf("could not calculate portfolio: [%v]", err)
	}

	return table, nil
}

func (ch *calculatorHandler) stopLoss(
	ctx context.Context,
	msg stopLossCall,
) (string, error) {
	reply, err := ch.gateway.Ask(ctx, positionsCall{})
	if err != nil {
		return "", fmt.Errorf("could not fetch positions: [%v]", err)
	}

	positions, ok := reply.([]trading.Position)
	if !ok {
		return "", fmt.Errorf("unexpected positions reply [%T]", reply)
	}

	var entries []calc.StopLossEntry
	for _, position := range positions {
		if position.Type != trading.PositionTypeProduct || position.Size <= 0 {
			continue
		}

		query := trading.QueryID(position.InstrumentID)

		instrument, err := ch.askInstrument(ctx, query)
		if err != nil {
			return "", err
		}

		series, err := ch.askSeries(ctx, query)
		if err != nil {
			return "", err
		}

		if instrument == nil || series == nil {
			ch.logger.Warningf(
				"no cached data for position [%v]",
				position.InstrumentID,
			)
			continue
		}

		entries = append(entries, calc.StopLossEntry{
			Instrument: instrument,
			Series:     series,
		})
	}

	return calc.StopLossTable(entries, msg.n, msg.maxPercent), nil
}

func (ch *calculatorHandler) askInstrument(
	ctx context.Context,
	query trading.Query,
) (*trading.Instrument, error) {
	reply, err := ch.cache.Ask(ctx, getInstrumentCall{query: query})
	if err != nil {
		return nil, fmt.Errorf("could not read instrument: [%v]", err)
	}

	instrument, _ := reply.(*trading.Instrument)
	return instrument, nil
}

func (ch *calculatorHandler) askSeries(
	ctx context.Context,
	query trading.Query,
) (*trading.PriceSeries, error) {
	reply, err := ch.cache.Ask(ctx, getSeriesCall{query: query})
	if err != nil {
		return nil, fmt.Errorf("could not read price series: [%v]", err)
	}

	series, _ := reply.(*trading.PriceSeries)
	return series, nil
}

func (ch *calculatorHandler) askReport(
	ctx context.Context,
	query trading.Query,
) (*trading.FinancialReport, error) {
	reply, err := ch.cache.Ask(ctx, getReportCall{query: query})
	if err != nil {
		return nil, fmt.Errorf("could not read financial report: [%v]", err)
	}

	report, _ := reply.(*trading.FinancialReport)
	return report, nil
}

func (ch *calculatorHandler) askRatios(
	ctx context.Context,
	query trading.Query,
) (*trading.CompanyRatios, error) {
	reply, err := ch.cache.Ask(ctx, getRatiosCall{query: query})
	if err != nil {
		return nil, fmt.Errorf("could not read company ratios: [%v]", err)
	}

	ratios, _ := reply.(*trading.CompanyRatios)
	return ratios, nil
}
