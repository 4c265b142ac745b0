package calc

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Holding pairs an instrument with its price series for the multi-asset
// weight calculation.
type Holding struct {
	Instrument *trading.Instrument
	Series     *trading.PriceSeries
}

// Weight is one instrument's allocated fraction of the portfolio. Fractions
// are normalized so their absolute values sum to one; a negative fraction is
// a short position.
type Weight struct {
	Instrument *trading.Instrument
	Fraction   float64
}

// Weights computes the leveraged drawdown-constrained allocation across the
// given holdings: drift vector over the inverted covariance matrix of
// returns, each column scaled by the instrument's remaining drawdown budget.
// With the short-sales constraint, negative drifts and negative weights are
// clamped to zero and only positive weights are returned.
func Weights(
	holdings []Holding,
	mode trading.RiskMode,
	risk, riskFree float64,
	period, interval trading.Period,
	shortSalesConstraint bool,
) ([]Weight, error) {
	freq := period.Div(interval)
	if freq <= 0 {
		return nil, fmt.Errorf(
			"invalid period/interval pair [%v]/[%v]",
			period, interval,
		)
	}

	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings to allocate")
	}

	observations := math.MaxInt
	for _, holding := range holdings {
		returns := holding.Series.Returns()
		if len(returns) < observations {
			observations = len(returns)
		}
	}

	if observations < freq {
		return nil, fmt.Errorf(
			"not enough observations: have [%v], need [%v]",
			observations, freq,
		)
	}

	returnRows := newMatrix(len(holdings), observations)
	budgets := make([]float64, len(holdings))
	drifts := make([]float64, len(holdings))

	for i, holding := range holdings {
		returns := holding.Series.Returns()
		// Align every row on the same most recent observations.
		returns = returns[len(returns)-observations:]

		for k, ret := range returns {
			returnRows.set(i, k, ret)
		}

		metric, err := riskMetric(returns, mode, freq)
		if err != nil {
			return nil, fmt.Errorf(
				"holding [%v]: %v",
				holding.Instrument.ID, err,
			)
		}

		redp, err := rollingEconomicDrawdown(holding.Series.Closes(), freq)
		if err != nil {
			return nil, fmt.Errorf(
				"holding [%v]: %v",
				holding.Instrument.ID, err,
			)
		}

		budgets[i] = (1 / (1 - risk*risk)) * ((risk - redp) / (1 - redp))

		drift := mean(returns) - riskFree + metric*metric/2
		if shortSalesConstraint {
			drift = math.Max(0, drift)
		}
		drifts[i] = drift
	}

	sigma := covariance(returnRows)

	sigmaInverse, err := inverse(sigma)
	if err != nil {
		return nil, fmt.Errorf("could not invert covariance matrix: [%v]", err)
	}

	scaledDrifts := sigmaInverse.mulVector(drifts)

	weights := make([]float64, len(holdings))
	for j := range holdings {
		sum := 0.0
		for i := range holdings {
			sum += scaledDrifts[i] * sigmaInverse.at(i, j)
		}
		weights[j] = sum * budgets[j]
	}

	if shortSalesConstraint {
		for j, weight := range weights {
			weights[j] = math.Max(0, weight)
		}
	}

	sumAbs := 0.0
	for _, weight := range weights {
		sumAbs += math.Abs(weight)
	}
	if sumAbs == 0 {
		return nil, fmt.Errorf("all weights collapsed to zero")
	}

	result := make([]Weight, 0, len(holdings))
	for j, holding := range holdings {
		fraction := weights[j] / sumAbs
		if shortSalesConstraint && fraction <= 0 {
			continue
		}
		result = append(result, Weight{
			Instrument: holding.Instrument,
			Fraction:   fraction,
		})
	}

	return result, nil
}

// Input is one fully loaded candidate for the portfolio plan. Candidates
// with missing pieces are skipped, not failed.
type Input struct {
	Instrument *trading.Instrument
	Series     *trading.PriceSeries
	Report     *trading.FinancialReport
	Ratios     *trading.CompanyRatios
}

// Constraints bound the portfolio plan. Pointer fields are optional filters;
// nil means unconstrained.
type Constraints struct {
	Mode                 trading.RiskMode
	Risk                 float64
	RiskFree             float64
	Freq                 int
	Money                float64
	MaxStocks            int
	MinRSI               *float64
	MaxRSI               *float64
	MinDrawdown          *float64
	MaxDrawdown          *float64
	MinCategory          *trading.Category
	MaxCategory          *trading.Category
	ShortSalesConstraint bool
	MinROIC              *float64
	ROICWACCDelta        *float64
}

const planRetryBound = 5

type planEntry struct {
	instrument *trading.Instrument
	series     *trading.PriceSeries
	allocation float64
	weight     float64
	sharpe     float64
	redp       float64
	averageDD  float64
	rsi        float64
	roic       float64
	wacc       float64
}

// Plan screens the candidates against the constraints, solves the weight
// allocation over the survivors, and renders the resulting portfolio as a
// text table. Solving retries with the weakest candidate removed when the
// allocation fails or violates a budget constraint, up to a fixed bound.
func Plan(inputs []*Input, constraints Constraints) (string, error) {
	entries := loadEntries(inputs, constraints)
	entries = screen(entries, constraints)

	retries := 0
	for {
		if retries > planRetryBound {
			return "", fmt.Errorf(
				"could not converge on a portfolio allocation "+
					"after [%v] retries",
				planRetryBound,
			)
		}

		if len(entries) == 0 {
			return renderPlan(nil, constraints), nil
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].instrument.ID < entries[j].instrument.ID
		})

		holdings := make([]Holding, len(entries))
		for i, entry := range entries {
			holdings[i] = Holding{
				Instrument: entry.instrument,
				Series:     entry.series,
			}
		}

		weights, err := Weights(
			holdings,
			constraints.Mode,
			constraints.Risk,
			constraints.RiskFree,
			trading.PeriodYear,
			trading.PeriodMonth,
			constraints.ShortSalesConstraint,
		)
		if err != nil {
			retries++
			entries = removeWorst(entries)
			continue
		}

		if len(weights) > constraints.MaxStocks {
			retries++
			entries = removeWorst(entries)
			continue
		}

		// Every allocated slice must buy at least one share.
		unaffordable := ""
		for _, weight := range weights {
			cash := constraints.Money * math.Abs(weight.Fraction)
			if cash < weight.Instrument.ClosePrice {
				unaffordable = weight.Instrument.ID
				break
			}
		}
		if unaffordable != "" {
			retries++
			entries = removeEntry(entries, unaffordable)
			continue
		}

		byID := make(map[string]float64, len(weights))
		for _, weight := range weights {
			byID[weight.Instrument.ID] = weight.Fraction
		}

		allocated := entries[:0]
		for _, entry := range entries {
			fraction, ok := byID[entry.instrument.ID]
			if !ok || fraction == 0 {
				continue
			}
			entry.weight = fraction
			allocated = append(allocated, entry)
		}

		return renderPlan(allocated, constraints), nil
	}
}

func loadEntries(inputs []*Input, constraints Constraints) []*planEntry {
	var entries []*planEntry

	for _, input := range inputs {
		if input.Instrument == nil || input.Series == nil ||
			input.Report == nil || input.Ratios == nil {
			continue
		}

		// freq returns need freq+1 candles.
		if input.Series.Len() < constraints.Freq+1 {
			continue
		}

		series := input.Series.TakeLast(constraints.Freq + 1)
		returns := series.Returns()

		allocation, err := SingleAllocation(
			series,
			constraints.Mode,
			constraints.Risk,
			constraints.RiskFree,
			trading.PeriodYear,
			trading.PeriodMonth,
		)
		if err != nil {
			continue
		}

		sharpe, err := sharpeRatio(returns, constraints.Freq, constraints.RiskFree)
		if err != nil {
			continue
		}

		averageDD, err := averageDrawdown(returns, constraints.Freq)
		if err != nil {
			continue
		}

		rsi, err := relativeStrengthIndex(series, constraints.Freq)
		if err != nil {
			continue
		}

		redp, err := rollingEconomicDrawdown(series.Closes(), constraints.Freq)
		if err != nil {
			continue
		}

		entries = append(entries, &planEntry{
			instrument: input.Instrument,
			series:     series,
			allocation: allocation,
			sharpe:     sharpe,
			redp:       redp,
			averageDD:  averageDD,
			rsi:        rsi,
			roic:       input.Ratios.ReturnOnInvestedCapital,
			wacc:       input.Ratios.WeightedAverageCostOfCapital,
		})
	}

	return entries
}

// screen drops every candidate failing a hard constraint before the weight
// allocation runs.
func screen(entries []*planEntry, constraints Constraints) []*planEntry {
	var freshest time.Time
	for _, entry := range entries {
		candles := entry.series.Candles
		if last := candles[len(candles)-1].Time; last.After(freshest) {
			freshest = last
		}
	}
	freshestYear, freshestMonth := freshest.Year(), freshest.Month()

	kept := entries[:0]
	for _, entry := range entries {
		candles := entry.series.Candles
		last := candles[len(candles)-1].Time
		if last.Year() != freshestYear || last.Month() != freshestMonth {
			continue
		}

		if constraints.MinRSI != nil && entry.rsi < *constraints.MinRSI {
			continue
		}
		if constraints.MaxRSI != nil && entry.rsi > *constraints.MaxRSI {
			continue
		}

		if constraints.MinDrawdown != nil &&
			entry.averageDD < *constraints.MinDrawdown {
			continue
		}
		if constraints.MaxDrawdown != nil &&
			entry.averageDD > *constraints.MaxDrawdown {
			continue
		}

		if !categoryWithin(
			entry.instrument.Category,
			constraints.MinCategory,
			constraints.MaxCategory,
		) {
			continue
		}

		if entry.instrument.ClosePrice > constraints.Money {
			continue
		}

		if constraints.ShortSalesConstraint && entry.allocation < 1 {
			continue
		}

		if constraints.MinROIC != nil && entry.roic < *constraints.MinROIC {
			continue
		}

		if constraints.ROICWACCDelta != nil &&
			entry.roic < entry.wacc+*constraints.ROICWACCDelta {
			continue
		}

		kept = append(kept, entry)
	}

	return kept
}

func categoryWithin(
	category trading.Category,
	min, max *trading.Category,
) bool {
	rank := category.Rank()
	if rank < 0 {
		return min == nil && max == nil
	}
	if min != nil && rank < min.Rank() {
		return false
	}
	if max != nil && rank > max.Rank() {
		return false
	}
	return true
}

func removeWorst(entries []*planEntry) []*planEntry {
	if len(entries) == 0 {
		return entries
	}

	worst := 0
	for i, entry := range entries {
		if entry.sharpe < entries[worst].sharpe {
			worst = i
		}
	}

	return append(entries[:worst], entries[worst+1:]...)
}

func removeEntry(entries []*planEntry, id string) []*planEntry {
	kept := entries[:0]
	for _, entry := range entries {
		if entry.instrument.ID == id {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
