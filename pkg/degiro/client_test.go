package degiro

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
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

// broker is an in-process stand-in for the upstream API. Handlers can be
// swapped per test; counters record how often each endpoint was hit.
type broker struct {
	server *httptest.Server

	mutex           sync.Mutex
	loginDelay      time.Duration
	loginCalls      int
	configCalls     int
	accountCalls    int
	productsCalls   int
	loginHandler    func(w http.ResponseWriter)
	configHandler   func(w http.ResponseWriter, logins int)
	productsHandler func(w http.ResponseWriter, calls int)
	quotesHandler   func(w http.ResponseWriter)
}

func newBroker(t *testing.T) *broker {
	b := &broker{}

	mux := http.NewServeMux()

	mux.HandleFunc("/login/secure/login", func(w http.ResponseWriter, r *http.Request) {
		b.mutex.Lock()
		b.loginCalls++
		delay := b.loginDelay
		handler := b.loginHandler
		b.mutex.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		if handler != nil {
			handler(w)
			return
		}

		writeJSON(w, map[string]interface{}{
			"sessionId": "session-1",
			"status":    0,
		})
	})

	mux.HandleFunc("/login/secure/config", func(w http.ResponseWriter, r *http.Request) {
		b.mutex.Lock()
		b.configCalls++
		logins := b.loginCalls
		handler := b.configHandler
		b.mutex.Unlock()

		if handler != nil {
			handler(w, logins)
			return
		}

		base := b.server.URL
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"clientId":         777,
				"paUrl":            base + "/pa/",
				"productSearchUrl": base + "/product_search/",
				"tradingUrl":       base + "/trading/",
				"reportingUrl":     base + "/reporting/",
			},
		})
	})

	mux.HandleFunc("/pa/client", func(w http.ResponseWriter, r *http.Request) {
		b.mutex.Lock()
		b.accountCalls++
		b.mutex.Unlock()

		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"id":         1,
				"intAccount": 4242,
				"username":   "tester",
			},
		})
	})

	mux.HandleFunc(
		"/product_search/v5/products/info",
		func(w http.ResponseWriter, r *http.Request) {
			b.mutex.Lock()
			b.productsCalls++
			calls := b.productsCalls
			handler := b.productsHandler
			b.mutex.Unlock()

			if handler != nil {
				handler(w, calls)
				return
			}

			writeJSON(w, map[string]interface{}{
				"data": map[string]interface{}{
					"332111": map[string]interface{}{
						"id":     "332111",
						"symbol": "MSFT",
						"name":   "Microsoft Corp",
						"isin":   "US5949181045",
						"vwdId":  "350015444",
					},
				},
			})
		},
	)

	mux.HandleFunc("/quotes", func(w http.ResponseWriter, r *http.Request) {
		b.mutex.Lock()
		handler := b.quotesHandler
		b.mutex.Unlock()

		if handler != nil {
			handler(w)
			return
		}

		writeJSON(w, map[string]interface{}{
			"start": "2020-01-01T00:00:00",
			"series": []map[string]interface{}{
				{"data": [][]float64{
					{0, 1, 2, 0.5, 1.5},
					{1, 1.5, 3, 1, 2.5},
					{2, 2.5, 4, 2, 3.5},
				}},
			},
		})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)

	return b
}

func (b *broker) counters() (logins, configs, accounts, products int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.loginCalls, b.configCalls, b.accountCalls, b.productsCalls
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, b *broker) *Client {
	client, err := NewClient(&Config{
		Username:      "tester",
		Password:      "secret",
		BaseURL:       b.server.URL + "/",
		MarketDataURL: b.server.URL + "/quotes",
		Logger:        &noopLogger{},
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	return client
}

func TestFirstCallLogsInExactlyOnce(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	_, err := client.Instrument(context.Background(), "332111")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	logins, configs, accounts, _ := b.counters()

	if logins != 1 {
		t.Fatalf("expected exactly one login, got [%v]", logins)
	}
	if configs != 1 {
		t.Fatalf("expected exactly one config fetch, got [%v]", configs)
	}
	if accounts != 1 {
		t.Fatalf("expected exactly one account fetch, got [%v]", accounts)
	}

	// A second call reuses the whole session state.
	_, err = client.Instrument(context.Background(), "332111")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	logins, _, _, _ = b.counters()
	if logins != 1 {
		t.Fatalf("expected no further login, got [%v]", logins)
	}
}

func TestSingleUnauthorizedTriggersOneReauthAndOneRetry(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	b.productsHandler = func(w http.ResponseWriter, calls int) {
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"332111": map[string]interface{}{
					"id":     "332111",
					"symbol": "MSFT",
				},
			},
		})
	}

	instrument, err := client.Instrument(context.Background(), "332111")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if instrument.Symbol != "MSFT" {
		t.Fatalf("unexpected symbol: [%v]", instrument.Symbol)
	}

	logins, _, _, products := b.counters()

	if logins != 2 {
		t.Fatalf("expected initial login plus one re-auth, got [%v]", logins)
	}
	if products != 2 {
		t.Fatalf("expected original call retried exactly once, got [%v]", products)
	}
}

func TestPersistentUnauthorizedExhaustsAuthChain(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	b.productsHandler = func(w http.ResponseWriter, calls int) {
		w.WriteHeader(http.StatusUnauthorized)
	}

	_, err := client.Instrument(context.Background(), "332111")
	if !errors.Is(err, trading.ErrAuthChainExhausted) {
		t.Fatalf("expected ErrAuthChainExhausted, got [%v]", err)
	}

	logins, _, _, products := b.counters()

	if logins != 2 {
		t.Fatalf("expected the re-auth budget spent after two logins, got [%v]", logins)
	}
	if products != 2 {
		t.Fatalf("expected the call bounded to two attempts, got [%v]", products)
	}
}

func TestStaleResumedSessionReauthorizesOnce(t *testing.T) {
	b := newBroker(t)

	// Endpoint discovery rejects the resumed session until a fresh
	// login has landed.
	b.configHandler = func(w http.ResponseWriter, logins int) {
		if logins == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		base := b.server.URL
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"clientId":         777,
				"paUrl":            base + "/pa/",
				"productSearchUrl": base + "/product_search/",
				"tradingUrl":       base + "/trading/",
				"reportingUrl":     base + "/reporting/",
			},
		})
	}

	secretsFile := t.TempDir() + "/secrets.json"
	err := os.WriteFile(
		secretsFile,
		[]byte(`{"sessionId":"stale-session"}`),
		0600,
	)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	client, err := NewClient(&Config{
		Username:      "tester",
		Password:      "secret",
		BaseURL:       b.server.URL + "/",
		MarketDataURL: b.server.URL + "/quotes",
		SecretsFile:   secretsFile,
		Logger:        &noopLogger{},
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if !client.hasPrerequisite(needSession) {
		t.Fatalf("expected session resumed from secrets file")
	}

	instrument, err := client.Instrument(context.Background(), "332111")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if instrument.Symbol != "MSFT" {
		t.Fatalf("unexpected symbol: [%v]", instrument.Symbol)
	}

	logins, _, _, _ := b.counters()
	if logins != 1 {
		t.Fatalf("expected exactly one fresh login, got [%v]", logins)
	}
}

func TestLoginWithoutSessionTokenExhaustsAuthChain(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	b.loginHandler = func(w http.ResponseWriter) {
		writeJSON(w, map[string]interface{}{"status": 0})
	}

	_, err := client.Instrument(context.Background(), "332111")
	if !errors.Is(err, trading.ErrAuthChainExhausted) {
		t.Fatalf("expected ErrAuthChainExhausted, got [%v]", err)
	}

	logins, _, _, _ := b.counters()
	if logins != 1 {
		t.Fatalf("expected a single login attempt, got [%v]", logins)
	}
}

func TestPriceSeriesDecodesOffsetsAgainstFixedMonth(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	series, err := client.PriceSeries(
		context.Background(),
		"332111",
		trading.PeriodFiftyYears,
		trading.PeriodMonth,
	)
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	expected := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	if len(series.Candles) != len(expected) {
		t.Fatalf("expected [%v] candles, got [%v]", len(expected), len(series.Candles))
	}

	for i, candle := range series.Candles {
		if !candle.Time.Equal(expected[i]) {
			t.Fatalf(
				"candle [%v]: expected time [%v], got [%v]",
				i, expected[i], candle.Time,
			)
		}
	}
}

func TestPriceSeriesIsCachedPerKey(t *testing.T) {
	b := newBroker(t)
	client := newTestClient(t, b)

	quoteCalls := 0
	b.quotesHandler = func(w http.ResponseWriter) {
		quoteCalls++
		writeJSON(w, map[string]interface{}{
			"start": "2020-01-01T00:00:00",
			"series": []map[string]interface{}{
				{"data": [][]float64{{0, 1, 2, 0.5, 1.5}}},
			},
		})
	}

	for i := 0; i < 3; i++ {
		_, err := client.PriceSeries(
			context.Background(),
			"332111",
			trading.PeriodFiftyYears,
			trading.PeriodMonth,
		)
		if err != nil {
			t.Fatalf("unexpected error: [%v]", err)
		}
	}

	if quoteCalls != 1 {
		t.Fatalf("expected one upstream quotes call, got [%v]", quoteCalls)
	}
}

func TestConcurrentCallsShareOneLogin(t *testing.T) {
	b := newBroker(t)
	b.loginDelay = 100 * time.Millisecond
	client := newTestClient(t, b)

	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Authorize(context.Background())
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: [%v]", err)
		}
	}

	logins, _, _, _ := b.counters()
	if logins > 2 {
		t.Fatalf("expected concurrent authorizations coalesced, got [%v] logins", logins)
	}
}

func TestRejectedLoginIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/secure/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(&Config{
		Username: "tester",
		Password: "wrong",
		BaseURL:  server.URL + "/",
		Logger:   &noopLogger{},
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	err = client.Authorize(context.Background())

	var upstreamErr *trading.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected upstream error, got [%v]", err)
	}
	if upstreamErr.Status != http.StatusForbidden {
		t.Fatalf("unexpected status: [%v]", upstreamErr.Status)
	}
}

func TestCashMovementClassification(t *testing.T) {
	tests := map[string]struct {
		typeCode string
		amount   float64
		expected trading.CashCategory
	}{
		"trade":            {"TRANSACTION", -100, trading.CashCategoryTrade},
		"dividend":         {"CASH_TRANSACTION", 12.5, trading.CashCategoryDividend},
		"fee":              {"CASH_TRANSACTION", -2.5, trading.CashCategoryFee},
		"deposit":          {"PAYMENT", 1000, trading.CashCategoryDeposit},
		"withdrawal":       {"PAYMENT", -500, trading.CashCategoryWithdrawal},
		"unknown code":     {"CASH_FUND_TRANSACTION", 1, trading.CashCategoryOther},
		"empty code":       {"", 1, trading.CashCategoryOther},
		"zero is inbound":  {"PAYMENT", 0, trading.CashCategoryDeposit},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			actual := classifyCashMovement(test.typeCode, test.amount)
			if actual != test.expected {
				t.Fatalf(
					"expected [%v], got [%v]",
					test.expected, actual,
				)
			}
		})
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	b := newBroker(t)

	secretsFile := t.TempDir() + "/secrets.json"

	client, err := NewClient(&Config{
		Username:    "tester",
		Password:    "secret",
		BaseURL:     b.server.URL + "/",
		SecretsFile: secretsFile,
		Logger:      &noopLogger{},
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if err := client.Authorize(context.Background()); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	resumed, err := NewClient(&Config{
		Username:    "tester",
		Password:    "secret",
		BaseURL:     b.server.URL + "/",
		SecretsFile: secretsFile,
		Logger:      &noopLogger{},
	})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if !resumed.hasPrerequisite(needSession) {
		t.Fatalf("expected session resumed from secrets file")
	}
}
