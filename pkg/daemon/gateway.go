package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/degiro"
	"github.com/vogelsang/vogelsang/pkg/settings"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// brokerClient is the slice of the brokerage client the gateway actor uses.
type brokerClient interface {
	Authorize(ctx context.Context) error
	Instrument(ctx context.Context, id string) (*trading.Instrument, error)
	PriceSeries(
		ctx context.Context,
		id string,
		period, resolution trading.Period,
	) (*trading.PriceSeries, error)
	FinancialReport(
		ctx context.Context,
		id, isin string,
	) (*trading.FinancialReport, error)
	CompanyRatios(
		ctx context.Context,
		id, isin string,
	) (*trading.CompanyRatios, error)
	Positions(ctx context.Context) ([]trading.Position, error)
	Orders(ctx context.Context) ([]trading.Order, error)
	Transactions(
		ctx context.Context,
		from, to time.Time,
	) ([]trading.Transaction, error)
}

// gatewayHandler owns the brokerage client. Session state lives inside the
// client and is never shared with other actors.
type gatewayHandler struct {
	client   brokerClient
	self     *actor.Ref
	cache    *actor.Ref
	settings *actor.Ref
	logger   trading.Logger
}

func newGatewayConstructor(
	config *degiro.Config,
	cache, settings *actor.Ref,
	logger trading.Logger,
) actor.Constructor {
	return func(self *actor.Ref) (actor.Handler, error) {
		client, err := degiro.NewClient(config)
		if err != nil {
			return nil, fmt.Errorf("could not create broker client: [%v]", err)
		}

		return &gatewayHandler{
			client:   client,
			self:     self,
			cache:    cache,
			settings: settings,
			logger:   logger.WithField("actor", "gateway"),
		}, nil
	}
}

// Gateway calls are safe to run concurrently: the client serializes logins
// through a single-flight guard and everything else is read-only upstream.
func (gh *gatewayHandler) HandlesConcurrently(message interface{}) bool {
	return true
}

func (gh *gatewayHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	switch msg := message.(type) {
	case authorizeCall:
		return nil, gh.client.Authorize(ctx)
	case fetchAllDataCall:
		return nil, gh.fetchAll(ctx)
	case fetchDataCall:
		return nil, gh.fetch(ctx, msg)
	case positionsCall:
		return gh.client.Positions(ctx)
	case ordersCall:
		return gh.client.Orders(ctx)
	case transactionsCall:
		return gh.client.Transactions(ctx, msg.from, msg.to)
	default:
		return nil, fmt.Errorf("unexpected message [%T]", message)
	}
}

func (gh *gatewayHandler) fetchAll(ctx context.Context) error {
	if err := gh.client.Authorize(ctx); err != nil {
		return fmt.Errorf("could not authorize: [%v]", err)
	}

	reply, err := gh.settings.Ask(ctx, listAssetsCall{})
	if err != nil {
		return fmt.Errorf("could not list assets: [%v]", err)
	}

	assets, ok := reply.([]settings.Asset)
	if !ok {
		return fmt.Errorf("unexpected assets reply [%T]", reply)
	}

	gh.logger.Infof("fetching data for [%v] assets", len(assets))

	// One message per asset; a failing asset never aborts the others.
	for _, asset := range assets {
		message := fetchDataCall{id: asset.ID, name: asset.Name}
		if err := gh.self.Tell(ctx, message); err != nil {
			gh.logger.Errorf(
				"could not submit fetch for asset [%v]: [%v]",
				asset.ID, err,
			)
		}
	}

	return nil
}

// fetch downloads everything known about one instrument and hands it to the
// cache. A rejected session re-authorizes once and re-submits the same
// message to the mailbox instead of retrying on the stack. A series or
// report that can no longer be fetched evicts the asset from the settings
// and the store.
func (gh *gatewayHandler) fetch(ctx context.Context, msg fetchDataCall) error {
	logger := gh.logger.WithFields(map[string]interface{}{
		"asset": msg.id,
		"name":  msg.name,
	})

	logger.Infof("fetching data for asset")

	isin := ""

	instrument, err := gh.client.Instrument(ctx, msg.id)
	switch {
	case errors.Is(err, trading.ErrUnauthorized):
		return gh.reauthorizeAndResubmit(ctx, logger, msg)
	case err != nil:
		logger.Errorf("could not fetch instrument: [%v]", err)
	default:
		isin = instrument.ISIN
		gh.tellCache(ctx, logger, putInstrumentCall{instrument: instrument})

		// Fetching an instrument starts tracking it; a re-fetch just
		// refreshes the stored name.
		track := addAssetCall{id: instrument.ID, name: instrument.Symbol}
		if _, err := gh.settings.Ask(ctx, track); err != nil {
			logger.Errorf("could not track asset: [%v]", err)
		}
	}

	series, err := gh.client.PriceSeries(
		ctx, msg.id, trading.PeriodFiftyYears, trading.PeriodMonth,
	)
	switch {
	case errors.Is(err, trading.ErrUnauthorized):
		return gh.reauthorizeAndResubmit(ctx, logger, msg)
	case err != nil:
		logger.Errorf("could not fetch price series: [%v]", err)
		gh.evict(ctx, logger, msg.id)
		return nil
	default:
		gh.tellCache(ctx, logger, putSeriesCall{series: series})
	}

	report, err := gh.client.FinancialReport(ctx, msg.id, isin)
	switch {
	case errors.Is(err, trading.ErrUnauthorized):
		return gh.reauthorizeAndResubmit(ctx, logger, msg)
	case err != nil:
		logger.Errorf("could not fetch financial report: [%v]", err)
		gh.evict(ctx, logger, msg.id)
		return nil
	default:
		gh.tellCache(ctx, logger, putReportCall{report: report})
	}

	ratios, err := gh.client.CompanyRatios(ctx, msg.id, isin)
	switch {
	case errors.Is(err, trading.ErrUnauthorized):
		return gh.reauthorizeAndResubmit(ctx, logger, msg)
	case err != nil:
		logger.Errorf("could not fetch company ratios: [%v]", err)
		gh.evict(ctx, logger, msg.id)
		return nil
	default:
		gh.tellCache(ctx, logger, putRatiosCall{ratios: ratios})
	}

	logger.Infof("fetched data for asset")

	return nil
}

func (gh *gatewayHandler) reauthorizeAndResubmit(
	ctx context.Context,
	logger trading.Logger,
	msg fetchDataCall,
) error {
	logger.Warningf("session rejected mid-fetch, re-authorizing")

	if err := gh.client.Authorize(ctx); err != nil {
		return fmt.Errorf("could not re-authorize: [%v]", err)
	}

	if err := gh.self.Tell(ctx, msg); err != nil {
		return fmt.Errorf("could not re-submit fetch: [%v]", err)
	}

	return nil
}

func (gh *gatewayHandler) tellCache(
	ctx context.Context,
	logger trading.Logger,
	message interface{},
) {
	if err := gh.cache.Tell(ctx, message); err != nil {
		logger.Errorf("could not submit cache write: [%v]", err)
	}
}

// evict is the partial-failure cleanup: the asset leaves the settings and
// the store but the rest of the fetch fan-out keeps going.
func (gh *gatewayHandler) evict(
	ctx context.Context,
	logger trading.Logger,
	id string,
) {
	logger.Warningf("evicting asset from settings and store")

	if _, err := gh.settings.Ask(ctx, deleteAssetCall{id: id}); err != nil {
		logger.Errorf("could not delete asset from settings: [%v]", err)
	}

	if _, err := gh.cache.Ask(ctx, deleteAssetDataCall{id: id}); err != nil {
		logger.Errorf("could not delete asset data from store: [%v]", err)
	}
}
