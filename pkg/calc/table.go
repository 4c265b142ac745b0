package calc

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const nameColumnWidth = 24

func trimName(name string) string {
	runes := []rune(name)
	if len(runes) > nameColumnWidth {
		runes = runes[:nameColumnWidth]
	}
	return string(runes)
}

func renderPlan(entries []*planEntry, constraints Constraints) string {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].weight > entries[j].weight
	})

	var buffer bytes.Buffer
	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(
		writer,
		"id\tname\tsymbol\tallocation\tcash\tqty\tprice\tsl\t"+
			"sharpe\tavg dd\troic\twacc\trsi\tredp\tclass",
	)

	for _, entry := range entries {
		cash := constraints.Money * math.Abs(entry.weight)
		price := entry.instrument.ClosePrice
		quantity := int64(math.Round(cash / price))

		// Long positions get their stop below the price, shorts above;
		// the offset is the average drawdown tripled, capped by the
		// risk budget.
		offset := math.Min(3*entry.averageDD, constraints.Risk)
		stopLoss := price * (1 - offset)
		if entry.weight < 0 {
			stopLoss = price * (1 + offset)
		}

		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%.2f\t%.2f\t%d\t%.2f\t%.2f\t"+
				"%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			entry.instrument.ID,
			trimName(entry.instrument.Name),
			entry.instrument.Symbol,
			entry.weight,
			cash,
			quantity,
			price,
			stopLoss,
			entry.sharpe,
			entry.averageDD,
			entry.roic,
			entry.wacc,
			entry.rsi,
			entry.redp,
			entry.instrument.Category,
		)
	}

	writer.Flush()

	return buffer.String()
}

// StopLossEntry is one long position with the data its stop-loss
// recalculation needs.
type StopLossEntry struct {
	Instrument *trading.Instrument
	Series     *trading.PriceSeries
}

const stopLossLookback = 12

// StopLossTable recalculates the stop-loss of every entry as the last close
// discounted by n average drawdowns, capping the discount at maxPercent when
// given. Entries with too little history are skipped.
func StopLossTable(entries []StopLossEntry, n int, maxPercent *float64) string {
	var buffer bytes.Buffer
	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(writer, "id\tname\tsymbol\tdate\tprice\tavg dd\tstop loss")

	for _, entry := range entries {
		returns := entry.Series.Returns()

		averageDD, err := averageDrawdown(returns, stopLossLookback)
		if err != nil {
			continue
		}

		lastCandle := entry.Series.Candles[entry.Series.Len()-1]

		discount := averageDD * float64(n)
		if maxPercent != nil {
			discount = math.Min(discount, *maxPercent)
		}

		stopLoss := lastCandle.Close * (1 - discount)

		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			entry.Instrument.ID,
			trimName(entry.Instrument.Name),
			entry.Instrument.Symbol,
			lastCandle.Time.Format("2006-01-02"),
			lastCandle.Close,
			averageDD,
			stopLoss,
		)
	}

	writer.Flush()

	return buffer.String()
}
