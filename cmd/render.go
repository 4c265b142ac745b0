package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const dateLayout = "2006-01-02"

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func renderInstrument(instrument *trading.Instrument) {
	writer := newTabWriter()

	fmt.Fprintf(writer, "id\t%v\n", instrument.ID)
	fmt.Fprintf(writer, "symbol\t%v\n", instrument.Symbol)
	fmt.Fprintf(writer, "name\t%v\n", instrument.Name)
	fmt.Fprintf(writer, "isin\t%v\n", instrument.ISIN)
	fmt.Fprintf(writer, "category\t%v\n", instrument.Category)
	fmt.Fprintf(writer, "product type\t%v\n", instrument.ProductType)
	fmt.Fprintf(writer, "exchange\t%v\n", instrument.ExchangeID)
	fmt.Fprintf(writer, "tradable\t%v\n", instrument.Tradable)
	fmt.Fprintf(writer, "close price\t%.2f\n", instrument.ClosePrice)
	fmt.Fprintf(
		writer, "close price date\t%v\n",
		instrument.ClosePriceDate.Format(dateLayout),
	)

	_ = writer.Flush()
}

func renderSeries(series *trading.PriceSeries) {
	writer := newTabWriter()

	fmt.Fprintln(writer, "time\topen\thigh\tlow\tclose")
	for _, candle := range series.Candles {
		fmt.Fprintf(
			writer, "%v\t%.4f\t%.4f\t%.4f\t%.4f\n",
			candle.Time.Format(dateLayout),
			candle.Open, candle.High, candle.Low, candle.Close,
		)
	}

	_ = writer.Flush()
}

func renderFinancials(
	report *trading.FinancialReport,
	ratios *trading.CompanyRatios,
) {
	writer := newTabWriter()

	if ratios != nil {
		fmt.Fprintf(writer, "currency\t%v\n", ratios.Currency)
		fmt.Fprintf(writer, "roic\t%.4f\n", ratios.ReturnOnInvestedCapital)
		fmt.Fprintf(
			writer, "wacc\t%.4f\n", ratios.WeightedAverageCostOfCapital,
		)
		fmt.Fprintf(writer, "p/e\t%.2f\n", ratios.PriceEarnings)
		fmt.Fprintf(writer, "market cap\t%.0f\n", ratios.MarketCap)
		fmt.Fprintln(writer)
	}

	if report != nil {
		fmt.Fprintln(writer, "year\trevenue\tnet income\tdebt\tequity")
		for _, figures := range report.Annual {
			fmt.Fprintf(
				writer, "%v\t%.0f\t%.0f\t%.0f\t%.0f\n",
				figures.Year, figures.Revenue, figures.NetIncome,
				figures.TotalDebt, figures.TotalEquity,
			)
		}
	}

	_ = writer.Flush()
}

func renderPositions(positions []trading.Position) {
	writer := newTabWriter()

	fmt.Fprintln(writer, "id\ttype\tsize\tprice\tvalue\tcurrency\tbreak even")
	for _, position := range positions {
		fmt.Fprintf(
			writer, "%v\t%v\t%.2f\t%.2f\t%.2f\t%v\t%.2f\n",
			position.InstrumentID, position.Type, position.Size,
			position.Price, position.Value, position.Currency,
			position.BreakEvenPrice,
		)
	}

	_ = writer.Flush()
}

func renderTransactions(transactions []trading.Transaction) {
	writer := newTabWriter()

	fmt.Fprintln(writer, "id\tdate\tproduct\tside\tqty\tprice\ttotal\tfees")
	for _, transaction := range transactions {
		fmt.Fprintf(
			writer, "%v\t%v\t%v\t%v\t%v\t%.2f\t%.2f\t%.2f\n",
			transaction.ID,
			transaction.Date.Format(dateLayout),
			transaction.InstrumentID,
			transaction.Side,
			transaction.Quantity,
			transaction.Price,
			transaction.TotalInBase,
			transaction.FeesInBase,
		)
	}

	_ = writer.Flush()
}

func renderOrders(orders []trading.Order) {
	writer := newTabWriter()

	fmt.Fprintln(writer, "id\tcreated\tsymbol\tside\ttype\tsize\tprice\tstop")
	for _, order := range orders {
		fmt.Fprintf(
			writer, "%v\t%v\t%v\t%v\t%v\t%.2f\t%.2f\t%.2f\n",
			order.ID,
			order.Created.Format(dateLayout),
			order.Symbol,
			order.Side,
			order.Type,
			order.Size,
			order.Price,
			order.StopPrice,
		)
	}

	_ = writer.Flush()
}
