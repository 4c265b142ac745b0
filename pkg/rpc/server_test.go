package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...interface{})   {}
func (l *noopLogger) Infof(format string, args ...interface{})    {}
func (l *noopLogger) Warningf(format string, args ...interface{}) {}
func (l *noopLogger) Errorf(format string, args ...interface{})   {}
func (l *noopLogger) Fatalf(format string, args ...interface{})   {}

func (l *noopLogger) WithField(key string, value interface{}) trading.Logger {
	return l
}

func (l *noopLogger) WithFields(fields map[string]interface{}) trading.Logger {
	return l
}

type echoDispatcher struct{}

func (d *echoDispatcher) Dispatch(ctx context.Context, request Request) Response {
	switch r := request.(type) {
	case *AuthorizeRequest:
		return nil
	case *GetInstrumentRequest:
		instrument := testInstrument()
		instrument.Symbol = r.Query.Term
		return &InstrumentResponse{Instrument: instrument}
	default:
		return nil
	}
}

func startTestServer(t *testing.T) string {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := NewServer("127.0.0.1:0", &echoDispatcher{}, &noopLogger{})

	go func() {
		_ = server.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for server.Address() == "" {
		if time.Now().After(deadline) {
			t.Fatalf("server did not start in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	return server.Address()
}

func TestCallReceivesMirroredResponse(t *testing.T) {
	address := startTestServer(t)

	client := NewClient(address)

	response, err := client.Call(&GetInstrumentRequest{
		Query: trading.QuerySymbol("MSFT"),
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	instrumentResponse, ok := response.(*InstrumentResponse)
	if !ok {
		t.Fatalf("unexpected response type [%T]", response)
	}
	if instrumentResponse.Instrument.Symbol != "MSFT" {
		t.Fatalf("unexpected symbol [%v]", instrumentResponse.Instrument.Symbol)
	}
}

func TestCallTreatsAbsentMarkerAsNoPayload(t *testing.T) {
	address := startTestServer(t)

	client := NewClient(address)

	response, err := client.Call(&AuthorizeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if response != nil {
		t.Fatalf("expected nil response, got [%+v]", response)
	}
}
