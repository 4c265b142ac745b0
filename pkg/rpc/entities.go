package rpc

import (
	"github.com/vogelsang/vogelsang/pkg/trading"
)

// The entity encodings below write every field in declaration order; the
// decoders mirror them exactly. Optional entities are prefixed with a
// presence byte like every other Option on the wire.

func encodeInstrumentOption(e *encoder, instrument *trading.Instrument) {
	if instrument == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)

	e.writeString(instrument.ID)
	e.writeString(instrument.Symbol)
	e.writeString(instrument.Name)
	e.writeString(instrument.ISIN)
	e.writeString(string(instrument.Category))
	e.writeString(instrument.ProductType)
	e.writeString(instrument.ExchangeID)
	e.writeFloat(instrument.ContractSize)
	e.writeBool(instrument.Active)
	e.writeBool(instrument.Tradable)
	e.writeBool(instrument.OnlyEODPrices)

	e.writeUint32(uint32(len(instrument.BuyOrderTypes)))
	for _, orderType := range instrument.BuyOrderTypes {
		e.writeString(string(orderType))
	}

	e.writeUint32(uint32(len(instrument.SellOrderTypes)))
	for _, orderType := range instrument.SellOrderTypes {
		e.writeString(string(orderType))
	}

	e.writeFloat(instrument.ClosePrice)
	e.writeTime(instrument.ClosePriceDate)
	e.writeString(instrument.MarketDataID)
}

func decodeInstrumentOption(d *decoder) *trading.Instrument {
	if d.readByte("instrument presence") == 0 {
		return nil
	}

	instrument := &trading.Instrument{
		ID:            d.readString("id"),
		Symbol:        d.readString("symbol"),
		Name:          d.readString("name"),
		ISIN:          d.readString("isin"),
		Category:      trading.Category(d.readString("category")),
		ProductType:   d.readString("product type"),
		ExchangeID:    d.readString("exchange id"),
		ContractSize:  d.readFloat("contract size"),
		Active:        d.readBool("active"),
		Tradable:      d.readBool("tradable"),
		OnlyEODPrices: d.readBool("only eod prices"),
	}

	buyCount := int(d.readUint32("buy order types count"))
	for i := 0; i < buyCount && d.err == nil; i++ {
		instrument.BuyOrderTypes = append(
			instrument.BuyOrderTypes,
			trading.OrderType(d.readString("buy order type")),
		)
	}

	sellCount := int(d.readUint32("sell order types count"))
	for i := 0; i < sellCount && d.err == nil; i++ {
		instrument.SellOrderTypes = append(
			instrument.SellOrderTypes,
			trading.OrderType(d.readString("sell order type")),
		)
	}

	instrument.ClosePrice = d.readFloat("close price")
	instrument.ClosePriceDate = d.readTime("close price date")
	instrument.MarketDataID = d.readString("market data id")

	return instrument
}

func encodeSeriesOption(e *encoder, series *trading.PriceSeries) {
	if series == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)

	e.writeString(series.InstrumentID)
	e.writeString(series.Symbol)
	e.writeString(string(series.Resolution))

	e.writeUint32(uint32(len(series.Candles)))
	for _, candle := range series.Candles {
		e.writeTime(candle.Time)
		e.writeFloat(candle.Open)
		e.writeFloat(candle.High)
		e.writeFloat(candle.Low)
		e.writeFloat(candle.Close)
	}
}

func decodeSeriesOption(d *decoder) *trading.PriceSeries {
	if d.readByte("series presence") == 0 {
		return nil
	}

	series := &trading.PriceSeries{
		InstrumentID: d.readString("instrument id"),
		Symbol:       d.readString("symbol"),
		Resolution:   trading.Period(d.readString("resolution")),
	}

	count := int(d.readUint32("candles count"))
	for i := 0; i < count && d.err == nil; i++ {
		series.Candles = append(series.Candles, trading.Candle{
			Time:  d.readTime("candle time"),
			Open:  d.readFloat("open"),
			High:  d.readFloat("high"),
			Low:   d.readFloat("low"),
			Close: d.readFloat("close"),
		})
	}

	return series
}

func encodeReportOption(e *encoder, report *trading.FinancialReport) {
	if report == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)

	e.writeString(report.InstrumentID)
	e.writeString(report.Currency)

	e.writeUint32(uint32(len(report.Annual)))
	for _, year := range report.Annual {
		e.writeUint32(uint32(year.Year))
		e.writeFloat(year.Revenue)
		e.writeFloat(year.NetIncome)
		e.writeFloat(year.TotalDebt)
		e.writeFloat(year.TotalEquity)
	}
}

func decodeReportOption(d *decoder) *trading.FinancialReport {
	if d.readByte("report presence") == 0 {
		return nil
	}

	report := &trading.FinancialReport{
		InstrumentID: d.readString("instrument id"),
		Currency:     d.readString("currency"),
	}

	count := int(d.readUint32("annual count"))
	for i := 0; i < count && d.err == nil; i++ {
		report.Annual = append(report.Annual, trading.AnnualFigures{
			Year:        int(d.readUint32("year")),
			Revenue:     d.readFloat("revenue"),
			NetIncome:   d.readFloat("net income"),
			TotalDebt:   d.readFloat("total debt"),
			TotalEquity: d.readFloat("total equity"),
		})
	}

	return report
}

func encodeRatiosOption(e *encoder, ratios *trading.CompanyRatios) {
	if ratios == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)

	e.writeString(ratios.InstrumentID)
	e.writeString(ratios.Currency)
	e.writeFloat(ratios.ReturnOnInvestedCapital)
	e.writeFloat(ratios.WeightedAverageCostOfCapital)
	e.writeFloat(ratios.PriceEarnings)
	e.writeFloat(ratios.MarketCap)
}

func decodeRatiosOption(d *decoder) *trading.CompanyRatios {
	if d.readByte("ratios presence") == 0 {
		return nil
	}

	return &trading.CompanyRatios{
		InstrumentID:                 d.readString("instrument id"),
		Currency:                     d.readString("currency"),
		ReturnOnInvestedCapital:      d.readFloat("roic"),
		WeightedAverageCostOfCapital: d.readFloat("wacc"),
		PriceEarnings:                d.readFloat("price earnings"),
		MarketCap:                    d.readFloat("market cap"),
	}
}

func encodePosition(e *encoder, position *trading.Position) {
	e.writeString(position.InstrumentID)
	e.writeString(string(position.Type))
	e.writeFloat(position.Size)
	e.writeFloat(position.Price)
	e.writeFloat(position.Value)
	e.writeString(position.Currency)
	e.writeFloat(position.BreakEvenPrice)
}

func decodePosition(d *decoder) trading.Position {
	return trading.Position{
		InstrumentID:   d.readString("instrument id"),
		Type:           trading.PositionType(d.readString("type")),
		Size:           d.readFloat("size"),
		Price:          d.readFloat("price"),
		Value:          d.readFloat("value"),
		Currency:       d.readString("currency"),
		BreakEvenPrice: d.readFloat("break even price"),
	}
}

func encodeTransaction(e *encoder, transaction *trading.Transaction) {
	e.writeUint64(uint64(transaction.ID))
	e.writeString(transaction.InstrumentID)
	e.writeString(string(transaction.Side))
	e.writeTime(transaction.Date)
	e.writeFloat(transaction.Price)
	e.writeUint64(uint64(int64(transaction.Quantity)))
	e.writeFloat(transaction.Total)
	e.writeFloat(transaction.TotalInBase)
	e.writeFloat(transaction.FeesInBase)
	e.writeString(transaction.Venue)
}

func decodeTransaction(d *decoder) trading.Transaction {
	return trading.Transaction{
		ID:           int(d.readUint64("id")),
		InstrumentID: d.readString("instrument id"),
		Side:         trading.OrderSide(d.readString("side")),
		Date:         d.readTime("date"),
		Price:        d.readFloat("price"),
		Quantity:     int(int64(d.readUint64("quantity"))),
		Total:        d.readFloat("total"),
		TotalInBase:  d.readFloat("total in base"),
		FeesInBase:   d.readFloat("fees in base"),
		Venue:        d.readString("venue"),
	}
}

func encodeOrder(e *encoder, order *trading.Order) {
	e.writeString(order.ID)
	e.writeString(order.InstrumentID)
	e.writeString(order.Symbol)
	e.writeString(string(order.Side))
	e.writeString(string(order.Type))
	e.writeFloat(order.Price)
	e.writeFloat(order.StopPrice)
	e.writeFloat(order.Size)
	e.writeString(order.Currency)
	e.writeTime(order.Created)
}

func decodeOrder(d *decoder) trading.Order {
	return trading.Order{
		ID:           d.readString("id"),
		InstrumentID: d.readString("instrument id"),
		Symbol:       d.readString("symbol"),
		Side:         trading.OrderSide(d.readString("side")),
		Type:         trading.OrderType(d.readString("type")),
		Price:        d.readFloat("price"),
		StopPrice:    d.readFloat("stop price"),
		Size:         d.readFloat("size"),
		Currency:     d.readString("currency"),
		Created:      d.readTime("created"),
	}
}
