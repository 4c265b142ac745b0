package rpc

import (
	"fmt"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Request is a command sent by the front-end to the daemon. Exactly one
// concrete variant travels per frame.
type Request interface {
	requestTag() byte
}

// Response is the daemon's reply. A frame carrying the absent marker
// instead of a response is the valid terminal reply of commands with no
// meaningful payload.
type Response interface {
	responseTag() byte
}

const (
	tagAuthorize byte = iota + 1
	tagFetchData
	tagGetInstrument
	tagGetFinancials
	tagGetPriceSeries
	tagGetSingleAllocation
	tagCalculatePortfolio
	tagRecalculateStopLoss
	tagGetPositions
	tagGetTransactions
	tagGetOrders
	tagCleanUp
)

const (
	tagInstrumentResponse byte = iota + 1
	tagFinancialsResponse
	tagPriceSeriesResponse
	tagSingleAllocationResponse
	tagPortfolioResponse
	tagStopLossResponse
	tagPositionsResponse
	tagTransactionsResponse
	tagOrdersResponse
	tagCleanUpResponse
)

type AuthorizeRequest struct{}

// FetchDataRequest asks the daemon to refresh the persisted data of one
// asset, or of every tracked asset when ID is nil.
type FetchDataRequest struct {
	ID *string
}

type GetInstrumentRequest struct {
	Query trading.Query
}

type GetFinancialsRequest struct {
	Query trading.Query
}

type GetPriceSeriesRequest struct {
	Query trading.Query
}

type GetSingleAllocationRequest struct {
	Query    trading.Query
	Mode     trading.RiskMode
	Risk     float64
	RiskFree float64
}

type CalculatePortfolioRequest struct {
	Mode                 trading.RiskMode
	Risk                 float64
	RiskFree             float64
	Freq                 uint32
	Money                float64
	MaxStocks            uint32
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

type RecalculateStopLossRequest struct {
	N          uint32
	MaxPercent *float64
}

type GetPositionsRequest struct{}

type GetTransactionsRequest struct {
	From time.Time
	To   time.Time
}

type GetOrdersRequest struct{}

type CleanUpRequest struct{}

func (r *AuthorizeRequest) requestTag() byte           { return tagAuthorize }
func (r *FetchDataRequest) requestTag() byte           { return tagFetchData }
func (r *GetInstrumentRequest) requestTag() byte       { return tagGetInstrument }
func (r *GetFinancialsRequest) requestTag() byte       { return tagGetFinancials }
func (r *GetPriceSeriesRequest) requestTag() byte      { return tagGetPriceSeries }
func (r *GetSingleAllocationRequest) requestTag() byte { return tagGetSingleAllocation }
func (r *CalculatePortfolioRequest) requestTag() byte  { return tagCalculatePortfolio }
func (r *RecalculateStopLossRequest) requestTag() byte { return tagRecalculateStopLoss }
func (r *GetPositionsRequest) requestTag() byte        { return tagGetPositions }
func (r *GetTransactionsRequest) requestTag() byte     { return tagGetTransactions }
func (r *GetOrdersRequest) requestTag() byte           { return tagGetOrders }
func (r *CleanUpRequest) requestTag() byte             { return tagCleanUp }

type InstrumentResponse struct {
	Instrument *trading.Instrument
}

type FinancialsResponse struct {
	Report *trading.FinancialReport
	Ratios *trading.CompanyRatios
}

type PriceSeriesResponse struct {
	Series *trading.PriceSeries
}

type SingleAllocationResponse struct {
	Allocation *float64
}

// PortfolioResponse carries the rendered allocation table, or nil when no
// portfolio could be calculated.
type PortfolioResponse struct {
	Table *string
}

type StopLossResponse struct {
	Table *string
}

type PositionsResponse struct {
	Positions []trading.Position
}

type TransactionsResponse struct {
	Transactions []trading.Transaction
}

type OrdersResponse struct {
	Orders []trading.Order
}

type CleanUpResponse struct {
	Deleted uint32
}

func (r *InstrumentResponse) responseTag() byte       { return tagInstrumentResponse }
func (r *FinancialsResponse) responseTag() byte       { return tagFinancialsResponse }
func (r *PriceSeriesResponse) responseTag() byte      { return tagPriceSeriesResponse }
func (r *SingleAllocationResponse) responseTag() byte { return tagSingleAllocationResponse }
func (r *PortfolioResponse) responseTag() byte        { return tagPortfolioResponse }
func (r *StopLossResponse) responseTag() byte         { return tagStopLossResponse }
func (r *PositionsResponse) responseTag() byte        { return tagPositionsResponse }
func (r *TransactionsResponse) responseTag() byte     { return tagTransactionsResponse }
func (r *OrdersResponse) responseTag() byte           { return tagOrdersResponse }
func (r *CleanUpResponse) responseTag() byte          { return tagCleanUpResponse }

// EncodeRequest renders a request payload.
func EncodeRequest(request Request) ([]byte, error) {
	e := &encoder{}
	e.writeByte(request.requestTag())

	switch r := request.(type) {
	case *AuthorizeRequest, *GetPositionsRequest, *GetOrdersRequest, *CleanUpRequest:
		// tag only

	case *FetchDataRequest:
		e.writeStringOption(r.ID)

	case *GetInstrumentRequest:
		encodeQuery(e, r.Query)

	case *GetFinancialsRequest:
		encodeQuery(e, r.Query)

	case *GetPriceSeriesRequest:
		encodeQuery(e, r.Query)

	case *GetSingleAllocationRequest:
		encodeQuery(e, r.Query)
		e.writeByte(byte(r.Mode))
		e.writeFloat(r.Risk)
		e.writeFloat(r.RiskFree)

	case *CalculatePortfolioRequest:
		e.writeByte(byte(r.Mode))
		e.writeFloat(r.Risk)
		e.writeFloat(r.RiskFree)
		e.writeUint32(r.Freq)
		e.writeFloat(r.Money)
		e.writeUint32(r.MaxStocks)
		e.writeFloatOption(r.MinRSI)
		e.writeFloatOption(r.MaxRSI)
		e.writeFloatOption(r.MinDrawdown)
		e.writeFloatOption(r.MaxDrawdown)
		encodeCategoryOption(e, r.MinCategory)
		encodeCategoryOption(e, r.MaxCategory)
		e.writeBool(r.ShortSalesConstraint)
		e.writeFloatOption(r.MinROIC)
		e.writeFloatOption(r.ROICWACCDelta)

	case *RecalculateStopLossRequest:
		e.writeUint32(r.N)
		e.writeFloatOption(r.MaxPercent)

	case *GetTransactionsRequest:
		e.writeTime(r.From)
		e.writeTime(r.To)

	default:
		return nil, fmt.Errorf("unknown request type [%T]", request)
	}

	return e.buffer, nil
}

// DecodeRequest parses a request payload.
func DecodeRequest(payload []byte) (Request, error) {
	d := &decoder{buffer: payload}

	tag := d.readByte("request tag")

	var request Request

	switch tag {
	case tagAuthorize:
		request = &AuthorizeRequest{}

	case tagFetchData:
		request = &FetchDataRequest{ID: d.readStringOption("id")}

	case tagGetInstrument:
		request = &GetInstrumentRequest{Query: decodeQuery(d)}

	case tagGetFinancials:
		request = &GetFinancialsRequest{Query: decodeQuery(d)}

	case tagGetPriceSeries:
		request = &GetPriceSeriesRequest{Query: decodeQuery(d)}

	case tagGetSingleAllocation:
		request = &GetSingleAllocationRequest{
			Query:    decodeQuery(d),
			Mode:     trading.RiskMode(d.readByte("mode")),
			Risk:     d.readFloat("risk"),
			RiskFree: d.readFloat("risk free"),
		}

	case tagCalculatePortfolio:
		request = &CalculatePortfolioRequest{
			Mode:                 trading.RiskMode(d.readByte("mode")),
			Risk:                 d.readFloat("risk"),
			RiskFree:             d.readFloat("risk free"),
			Freq:                 d.readUint32("freq"),
			Money:                d.readFloat("money"),
			MaxStocks:            d.readUint32("max stocks"),
			MinRSI:               d.readFloatOption("min rsi"),
			MaxRSI:               d.readFloatOption("max rsi"),
			MinDrawdown:          d.readFloatOption("min drawdown"),
			MaxDrawdown:          d.readFloatOption("max drawdown"),
			MinCategory:          decodeCategoryOption(d),
			MaxCategory:          decodeCategoryOption(d),
			ShortSalesConstraint: d.readBool("short sales constraint"),
			MinROIC:              d.readFloatOption("min roic"),
			ROICWACCDelta:        d.readFloatOption("roic wacc delta"),
		}

	case tagRecalculateStopLoss:
		request = &RecalculateStopLossRequest{
			N:          d.readUint32("n"),
			MaxPercent: d.readFloatOption("max percent"),
		}

	case tagGetPositions:
		request = &GetPositionsRequest{}

	case tagGetTransactions:
		request = &GetTransactionsRequest{
			From: d.readTime("from"),
			To:   d.readTime("to"),
		}

	case tagGetOrders:
		request = &GetOrdersRequest{}

	case tagCleanUp:
		request = &CleanUpRequest{}

	default:
		return nil, fmt.Errorf("unknown request tag [%v]", tag)
	}

	if err := d.finish("request"); err != nil {
		return nil, err
	}

	return request, nil
}

// EncodeResponse renders a response payload. A nil response renders the
// absent marker.
func EncodeResponse(response Response) ([]byte, error) {
	e := &encoder{}

	if response == nil {
		e.writeByte(0)
		return e.buffer, nil
	}

	e.writeByte(1)
	e.writeByte(response.responseTag())

	switch r := response.(type) {
	case *InstrumentResponse:
		encodeInstrumentOption(e, r.Instrument)

	case *FinancialsResponse:
		encodeReportOption(e, r.Report)
		encodeRatiosOption(e, r.Ratios)

	case *PriceSeriesResponse:
		encodeSeriesOption(e, r.Series)

	case *SingleAllocationResponse:
		e.writeFloatOption(r.Allocation)

	case *PortfolioResponse:
		e.writeStringOption(r.Table)

	case *StopLossResponse:
		e.writeStringOption(r.Table)

	case *PositionsResponse:
		e.writeUint32(uint32(len(r.Positions)))
		for i := range r.Positions {
			encodePosition(e, &r.Positions[i])
		}

	case *TransactionsResponse:
		e.writeUint32(uint32(len(r.Transactions)))
		for i := range r.Transactions {
			encodeTransaction(e, &r.Transactions[i])
		}

	case *OrdersResponse:
		e.writeUint32(uint32(len(r.Orders)))
		for i := range r.Orders {
			encodeOrder(e, &r.Orders[i])
		}

	case *CleanUpResponse:
		e.writeUint32(r.Deleted)

	default:
		return nil, fmt.Errorf("unknown response type [%T]", response)
	}

	return e.buffer, nil
}

// DecodeResponse parses a response payload. The absent marker decodes to a
// nil response with no error.
func DecodeResponse(payload []byte) (Response, error) {
	d := &decoder{buffer: payload}

	if d.readByte("presence") == 0 {
		if err := d.finish("response"); err != nil {
			return nil, err
		}
		return nil, nil
	}

	tag := d.readByte("response tag")

	var response Response

	switch tag {
	case tagInstrumentResponse:
		response = &InstrumentResponse{Instrument: decodeInstrumentOption(d)}

	case tagFinancialsResponse:
		response = &FinancialsResponse{
			Report: decodeReportOption(d),
			Ratios: decodeRatiosOption(d),
		}

	case tagPriceSeriesResponse:
		response = &PriceSeriesResponse{Series: decodeSeriesOption(d)}

	case tagSingleAllocationResponse:
		response = &SingleAllocationResponse{
			Allocation: d.readFloatOption("allocation"),
		}

	case tagPortfolioResponse:
		response = &PortfolioResponse{Table: d.readStringOption("table")}

	case tagStopLossResponse:
		response = &StopLossResponse{Table: d.readStringOption("table")}

	case tagPositionsResponse:
		count := int(d.readUint32("positions count"))
		positions := make([]trading.Position, 0, count)
		for i := 0; i < count && d.err == nil; i++ {
			positions = append(positions, decodePosition(d))
		}
		response = &PositionsResponse{Positions: positions}

	case tagTransactionsResponse:
		count := int(d.readUint32("transactions count"))
		transactions := make([]trading.Transaction, 0, count)
		for i := 0; i < count && d.err == nil; i++ {
			transactions = append(transactions, decodeTransaction(d))
		}
		response = &TransactionsResponse{Transactions: transactions}

	case tagOrdersResponse:
		count := int(d.readUint32("orders count"))
		orders := make([]trading.Order, 0, count)
		for i := 0; i < count && d.err == nil; i++ {
			orders = append(orders, decodeOrder(d))
		}
		response = &OrdersResponse{Orders: orders}

	case tagCleanUpResponse:
		response = &CleanUpResponse{Deleted: d.readUint32("deleted")}

	default:
		return nil, fmt.Errorf("unknown response tag [%v]", tag)
	}

	if err := d.finish("response"); err != nil {
		return nil, err
	}

	return response, nil
}

func encodeQuery(e *encoder, query trading.Query) {
	e.writeByte(byte(query.Kind))
	e.writeString(query.Term)
}

func decodeQuery(d *decoder) trading.Query {
	return trading.Query{
		Kind: trading.QueryKind(d.readByte("query kind")),
		Term: d.readString("query term"),
	}
}

func encodeCategoryOption(e *encoder, category *trading.Category) {
	if category == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)
	e.writeString(string(*category))
}

func decodeCategoryOption(d *decoder) *trading.Category {
	if d.readByte("category presence") == 0 {
		return nil
	}
	category := trading.Category(d.readString("category"))
	return &category
}
