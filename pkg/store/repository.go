package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// entityTables lists every table a Delete has to visit. An asset is fully
// gone only when its id is absent from all of them.
var entityTables = []string{
	"instruments",
	"price_series",
	"financial_reports",
	"company_ratios",
}

// Repository reads and writes the persisted broker entities. Reads may run
// concurrently; writes are serialized by the caller (the cache actor
// handles them on its sequential path).
type Repository struct {
	client *Client
}

func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) put(table, id string, entity interface{}) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return &trading.StoreError{
			Op:    "put " + table,
			Cause: fmt.Errorf("could not encode entity [%v]: [%v]", id, err),
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, data) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		table,
	)

	if _, err := r.client.instance().Exec(query, id, string(data)); err != nil {
		return &trading.StoreError{Op: "put " + table, Cause: err}
	}

	return nil
}

func (r *Repository) get(table, id string, entity interface{}) error {
	var data string

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, table)

	err := r.client.instance().Get(&data, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return trading.ErrNotFound
		}
		return &trading.StoreError{Op: "get " + table, Cause: err}
	}

	if err := json.Unmarshal([]byte(data), entity); err != nil {
		return &trading.StoreError{
			Op:    "get " + table,
			Cause: fmt.Errorf("could not decode entity [%v]: [%v]", id, err),
		}
	}

	return nil
}

func (r *Repository) PutInstrument(instrument *trading.Instrument) error {
	return r.put("instruments", instrument.ID, instrument)
}

func (r *Repository) Instrument(id string) (*trading.Instrument, error) {
	var instrument trading.Instrument
	if err := r.get("instruments", id, &instrument); err != nil {
		return nil, err
	}
	return &instrument, nil
}

func (r *Repository) PutPriceSeries(series *trading.PriceSeries) error {
	return r.put("price_series", series.InstrumentID, series)
}

func (r *Repository) PriceSeries(id string) (*trading.PriceSeries, error) {
	var series trading.PriceSeries
	if err := r.get("price_series", id, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

func (r *Repository) PutFinancialReport(report *trading.FinancialReport) error {
	return r.put("financial_reports", report.InstrumentID, report)
}

func (r *Repository) FinancialReport(id string) (*trading.FinancialReport, error) {
	var report trading.FinancialReport
	if err := r.get("financial_reports", id, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *Repository) PutCompanyRatios(ratios *trading.CompanyRatios) error {
	return r.put("company_ratios", ratios.InstrumentID, ratios)
}

func (r *Repository) CompanyRatios(id string) (*trading.CompanyRatios, error) {
	var ratios trading.CompanyRatios
	if err := r.get("company_ratios", id, &ratios); err != nil {
		return nil, err
	}
	return &ratios, nil
}

// Delete removes every trace of the asset from all entity tables in one
// transaction. Deleting an id that was never stored is a no-op.
func (r *Repository) Delete(id string) error {
	tx, err := r.client.instance().Beginx()
	if err != nil {
		return &trading.StoreError{Op: "delete", Cause: err}
	}

	for _, table := range entityTables {
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)
		if _, err := tx.Exec(query, id); err != nil {
			_ = tx.Rollback()
			return &trading.StoreError{Op: "delete " + table, Cause: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &trading.StoreError{Op: "delete", Cause: err}
	}

	return nil
}

// IDs returns every id present in any entity table, deduplicated.
func (r *Repository) IDs() ([]string, error) {
	selects := make([]string, len(entityTables))
	for i, table := range entityTables {
		selects[i] = fmt.Sprintf(`SELECT id FROM %s`, table)
	}

	query := strings.Join(selects, " UNION ")

	var ids []string
	if err := r.client.instance().Select(&ids, query); err != nil {
		return nil, &trading.StoreError{Op: "ids", Cause: err}
	}

	return ids, nil
}

// FindInstrument scans the persisted instruments for the query: exact id,
// case-insensitive exact symbol, then case-insensitive name match.
func (r *Repository) FindInstrument(query trading.Query) (*trading.Instrument, error) {
	if query.Kind == trading.QueryByID {
		return r.Instrument(query.Term)
	}

	var rows []string
	err := r.client.instance().Select(&rows, `SELECT data FROM instruments`)
	if err != nil {
		return nil, &trading.StoreError{Op: "find instrument", Cause: err}
	}

	for _, data := range rows {
		var instrument trading.Instrument
		if err := json.Unmarshal([]byte(data), &instrument); err != nil {
			return nil, &trading.StoreError{
				Op:    "find instrument",
				Cause: err,
			}
		}

		if query.Matches(&instrument) {
			return &instrument, nil
		}
	}

	return nil, trading.ErrNotFound
}

// Instruments returns all persisted instruments.
func (r *Repository) Instruments() ([]*trading.Instrument, error) {
	var rows []string
	err := r.client.instance().Select(&rows, `SELECT data FROM instruments`)
	if err != nil {
		return nil, &trading.StoreError{Op: "instruments", Cause: err}
	}

	instruments := make([]*trading.Instrument, 0, len(rows))
	for _, data := range rows {
		var instrument trading.Instrument
		if err := json.Unmarshal([]byte(data), &instrument); err != nil {
			return nil, &trading.StoreError{Op: "instruments", Cause: err}
		}
		instruments = append(instruments, &instrument)
	}

	return instruments, nil
}
