package calc

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

func TestCovariance(t *testing.T) {
	returns := newMatrix(2, 3)
	for k, value := range []float64{1, 2, 3} {
		returns.set(0, k, value)
	}
	for k, value := range []float64{2, 4, 6} {
		returns.set(1, k, value)
	}

	sigma := covariance(returns)

	approxEqual(t, 1, sigma.at(0, 0), 0.0000001)
	approxEqual(t, 2, sigma.at(0, 1), 0.0000001)
	approxEqual(t, 2, sigma.at(1, 0), 0.0000001)
	approxEqual(t, 4, sigma.at(1, 1), 0.0000001)
}

func TestInverse(t *testing.T) {
	m := newMatrix(2, 2)
	m.set(0, 0, 4)
	m.set(0, 1, 7)
	m.set(1, 0, 2)
	m.set(1, 1, 6)

	inverted, err := inverse(m)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	// Multiplying back must give the identity.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum := 0.0
			for k := 0; k < 2; k++ {
				sum += m.at(i, k) * inverted.at(k, j)
			}
			expected := 0.0
			if i == j {
				expected = 1.0
			}
			approxEqual(t, expected, sum, 0.0000001)
		}
	}
}

func TestInverseRejectsSingularMatrix(t *testing.T) {
	m := newMatrix(2, 2)
	m.set(0, 0, 1)
	m.set(0, 1, 2)
	m.set(1, 0, 2)
	m.set(1, 1, 4)

	if _, err := inverse(m); err == nil {
		t.Fatalf("expected error")
	}
}

func testInstrument(id, symbol string, closePrice float64) *trading.Instrument {
	return &trading.Instrument{
		ID:         id,
		Symbol:     symbol,
		Name:       symbol + " Incorporated",
		Category:   trading.CategoryB,
		ClosePrice: closePrice,
	}
}

var (
	closesA = []float64{
		100, 102, 101, 104, 106, 105, 108, 110, 109, 112, 115, 114, 118,
	}
	closesB = []float64{
		50, 50.6, 51.5, 51.1, 52.4, 52.0, 53.3, 53.0, 54.2, 54.0, 55.5, 55.2, 56.4,
	}
	closesC = []float64{
		200, 197, 203, 201, 208, 205, 212, 210, 218, 215, 223, 220, 228,
	}
)

func testHoldings() []Holding {
	return []Holding{
		{Instrument: testInstrument("1", "AAA", 118), Series: monthlySeries("1", closesA)},
		{Instrument: testInstrument("2", "BBB", 56.4), Series: monthlySeries("2", closesB)},
		{Instrument: testInstrument("3", "CCC", 228), Series: monthlySeries("3", closesC)},
	}
}

func TestWeightsAreNormalized(t *testing.T) {
	weights, err := Weights(
		testHoldings(),
		trading.RiskModeSTD,
		0.3,
		0,
		trading.PeriodYear,
		trading.PeriodMonth,
		false,
	)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if len(weights) != 3 {
		t.Fatalf("unexpected weight count: [%v]", len(weights))
	}

	sumAbs := 0.0
	for _, weight := range weights {
		sumAbs += math.Abs(weight.Fraction)
	}

	approxEqual(t, 1, sumAbs, 0.0000001)
}

func TestWeightsHonorShortSalesConstraint(t *testing.T) {
	weights, err := Weights(
		testHoldings(),
		trading.RiskModeSTD,
		0.3,
		0,
		trading.PeriodYear,
		trading.PeriodMonth,
		true,
	)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if len(weights) == 0 {
		t.Fatalf("expected at least one weight")
	}

	for _, weight := range weights {
		if weight.Fraction <= 0 {
			t.Fatalf(
				"unexpected non-positive fraction [%v] for [%v]",
				weight.Fraction, weight.Instrument.ID,
			)
		}
	}
}

func TestWeightsRejectDependentSeries(t *testing.T) {
	holdings := []Holding{
		{Instrument: testInstrument("1", "AAA", 118), Series: monthlySeries("1", closesA)},
		{Instrument: testInstrument("2", "AAA2", 118), Series: monthlySeries("2", closesA)},
	}

	_, err := Weights(
		holdings,
		trading.RiskModeSTD,
		0.3,
		0,
		trading.PeriodYear,
		trading.PeriodMonth,
		false,
	)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func testRatios(id string, roic, wacc float64) *trading.CompanyRatios {
	return &trading.CompanyRatios{
		InstrumentID:                 id,
		Currency:                     "EUR",
		ReturnOnInvestedCapital:      roic,
		WeightedAverageCostOfCapital: wacc,
	}
}

func testReport(id string) *trading.FinancialReport {
	return &trading.FinancialReport{
		InstrumentID: id,
		Currency:     "EUR",
		Annual: []trading.AnnualFigures{
			{Year: 2025, Revenue: 1000, NetIncome: 100, TotalDebt: 200, TotalEquity: 800},
		},
	}
}

func testInputs() []*Input {
	return []*Input{
		{
			Instrument: testInstrument("1", "AAA", 118),
			Series:     monthlySeries("1", closesA),
			Report:     testReport("1"),
			Ratios:     testRatios("1", 0.25, 0.08),
		},
		{
			Instrument: testInstrument("2", "BBB", 56.4),
			Series:     monthlySeries("2", closesB),
			Report:     testReport("2"),
			Ratios:     testRatios("2", 0.20, 0.07),
		},
		{
			Instrument: testInstrument("3", "CCC", 228),
			Series:     monthlySeries("3", closesC),
			Report:     testReport("3"),
			Ratios:     testRatios("3", 0.15, 0.09),
		},
	}
}

func testConstraints() Constraints {
	return Constraints{
		Mode:      trading.RiskModeSTD,
		Risk:      0.3,
		RiskFree:  0,
		Freq:      12,
		Money:     100000,
		MaxStocks: 10,
	}
}

func TestPlanRendersTable(t *testing.T) {
	table, err := Plan(testInputs(), testConstraints())
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if !strings.Contains(table, "allocation") {
		t.Fatalf("missing header in table:\n%v", table)
	}
}

func TestPlanSkipsIncompleteInputs(t *testing.T) {
	inputs := testInputs()
	inputs[2].Ratios = nil

	table, err := Plan(inputs, testConstraints())
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if strings.Contains(table, "CCC") {
		t.Fatalf("incomplete input not skipped:\n%v", table)
	}
}

func TestPlanScreensOnROICWACCDelta(t *testing.T) {
	constraints := testConstraints()
	delta := 0.10
	constraints.ROICWACCDelta = &delta

	// CCC has roic 0.15 against wacc 0.09: below the required margin.
	table, err := Plan(testInputs(), constraints)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if strings.Contains(table, "CCC") {
		t.Fatalf("screened instrument still present:\n%v", table)
	}
}

func TestPlanScreensOnCategory(t *testing.T) {
	inputs := testInputs()
	inputs[0].Instrument.Category = trading.CategoryF

	constraints := testConstraints()
	maxCategory := trading.CategoryD
	constraints.MaxCategory = &maxCategory

	table, err := Plan(inputs, constraints)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if strings.Contains(table, "AAA") {
		t.Fatalf("screened instrument still present:\n%v", table)
	}
}

func TestPlanScreensOnPrice(t *testing.T) {
	constraints := testConstraints()
	constraints.Money = 200

	// CCC closes at 228: more than the whole budget.
	table, err := Plan(testInputs(), constraints)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if strings.Contains(table, "CCC") {
		t.Fatalf("screened instrument still present:\n%v", table)
	}
}

// monthlySeriesEnding places one candle per calendar month so the last
// candle lands exactly on end.
func monthlySeriesEnding(
	id string,
	end time.Time,
	closes []float64,
) *trading.PriceSeries {
	candles := make([]trading.Candle, len(closes))
	for i, close := range closes {
		candles[i] = trading.Candle{
			Time:  end.AddDate(0, i-len(closes)+1, 0),
			Open:  close,
			High:  close,
			Low:   close,
			Close: close,
		}
	}

	return &trading.PriceSeries{
		InstrumentID: id,
		Symbol:       id,
		Resolution:   trading.PeriodMonth,
		Candles:      candles,
	}
}

func TestPlanDropsStaleSeriesAcrossYearBoundary(t *testing.T) {
	december := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	january := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	inputs := testInputs()
	inputs[0].Series = monthlySeriesEnding("1", december, closesA)
	inputs[1].Series = monthlySeriesEnding("2", january, closesB)
	inputs[2].Series = monthlySeriesEnding("3", january, closesC)

	// AAA stopped updating a month before the others; December's higher
	// month number must not outrank January of the following year.
	table, err := Plan(inputs, testConstraints())
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if strings.Contains(table, "AAA") {
		t.Fatalf("stale instrument still present:\n%v", table)
	}
	if !strings.Contains(table, "BBB") {
		t.Fatalf("fresh instrument missing:\n%v", table)
	}
}

func TestStopLossTableCapsDiscount(t *testing.T) {
	entries := []StopLossEntry{
		{
			Instrument: testInstrument("1", "AAA", 118),
			Series:     monthlySeries("1", closesA),
		},
	}

	maxPercent := 0.5
	table := StopLossTable(entries, 100, &maxPercent)

	// A hundred average drawdowns would put the stop below zero; the cap
	// pins it at half the last close.
	if !strings.Contains(table, "59.00") {
		t.Fatalf("discount not capped:\n%v", table)
	}
}

func TestStopLossTableSkipsShortSeries(t *testing.T) {
	entries := []StopLossEntry{
		{
			Instrument: testInstrument("1", "AAA", 118),
			Series:     monthlySeries("1", closesA[:5]),
		},
	}

	table := StopLossTable(entries, 3, nil)

	if strings.Contains(table, "AAA") {
		t.Fatalf("short series not skipped:\n%v", table)
	}
}
