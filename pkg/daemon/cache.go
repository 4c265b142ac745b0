package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/store"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// cacheHandler owns the persistent store. Writes go through the mailbox one
// at a time so their order is preserved; reads run concurrently.
type cacheHandler struct {
	repository *store.Repository
	logger     trading.Logger
}

func newCacheConstructor(
	client *store.Client,
	logger trading.Logger,
) actor.Constructor {
	return func(self *actor.Ref) (actor.Handler, error) {
		return &cacheHandler{
			repository: store.NewRepository(client),
			logger:     logger.WithField("actor", "cache"),
		}, nil
	}
}

func (ch *cacheHandler) HandlesConcurrently(message interface{}) bool {
	switch message.(type) {
	case getInstrumentCall, getSeriesCall, getReportCall, getRatiosCall:
		return true
	default:
		return false
	}
}

func (ch *cacheHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	switch msg := message.(type) {
	case putInstrumentCall:
		return nil, ch.write(ch.repository.PutInstrument(msg.instrument))
	case putSeriesCall:
		return nil, ch.write(ch.repository.PutPriceSeries(msg.series))
	case putReportCall:
		return nil, ch.write(ch.repository.PutFinancialReport(msg.report))
	case putRatiosCall:
		return nil, ch.write(ch.repository.PutCompanyRatios(msg.ratios))
	case deleteAssetDataCall:
		return nil, ch.write(ch.repository.Delete(msg.id))
	case cleanUpCall:
		return ch.cleanUp(msg.tracked)
	case getInstrumentCall:
		instrument, err := ch.repository.FindInstrument(msg.query)
		return instrument, ch.read(err)
	case getSeriesCall:
		return ch.readSeries(msg.query)
	case getReportCall:
		return ch.readReport(msg.query)
	case getRatiosCall:
		return ch.readRatios(msg.query)
	default:
		return nil, fmt.Errorf("unexpected message [%T]", message)
	}
}

// write escalates a store transaction failure into an incarnation failure:
// the supervisor restarts the cache actor while the mailbox keeps queuing.
func (ch *cacheHandler) write(err error) error {
	var storeErr *trading.StoreError
	if errors.As(err, &storeErr) {
		panic(err)
	}

	return err
}

// read flattens a missing entity into an absent reply; only real store
// failures escalate.
func (ch *cacheHandler) read(err error) error {
	if err == nil || errors.Is(err, trading.ErrNotFound) {
		return nil
	}

	var storeErr *trading.StoreError
	if errors.As(err, &storeErr) {
		panic(err)
	}

	return err
}

// resolveID turns a query into an instrument id, going through the cached
// instruments for symbol and name lookups.
func (ch *cacheHandler) resolveID(query trading.Query) (string, error) {
	if query.Kind == trading.QueryByID {
		return query.Term, nil
	}

	instrument, err := ch.repository.FindInstrument(query)
	if err != nil {
		return "", err
	}

	return instrument.ID, nil
}

func (ch *cacheHandler) readSeries(
	query trading.Query,
) (*trading.PriceSeries, error) {
	id, err := ch.resolveID(query)
	if err != nil {
		return nil, ch.read(err)
	}

	series, err := ch.repository.PriceSeries(id)
	return series, ch.read(err)
}

func (ch *cacheHandler) readReport(
	query trading.Query,
) (*trading.FinancialReport, error) {
	id, err := ch.resolveID(query)
	if err != nil {
		return nil, ch.read(err)
	}

	report, err := ch.repository.FinancialReport(id)
	return report, ch.read(err)
}

func (ch *cacheHandler) readRatios(
	query trading.Query,
) (*trading.CompanyRatios, error) {
	id, err := ch.resolveID(query)
	if err != nil {
		return nil, ch.read(err)
	}

	ratios, err := ch.repository.CompanyRatios(id)
	return ratios, ch.read(err)
}

func (ch *cacheHandler) cleanUp(tracked map[string]struct{}) (int, error) {
	ids, err := ch.repository.IDs()
	if err != nil {
		return 0, ch.write(err)
	}

	deleted := 0
	for _, id := range ids {
		if _, ok := tracked[id]; ok {
			continue
		}

		if err := ch.repository.Delete(id); err != nil {
			return deleted, ch.write(err)
		}

		ch.logger.Infof("removed untracked asset [%v] from store", id)
		deleted++
	}

	return deleted, nil
}
