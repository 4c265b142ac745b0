// Package degiro implements the authenticated HTTP gateway to the broker.
//
// The client owns the whole session state: the session token obtained by
// login, the user token and endpoint map obtained from the account config,
// and the account snapshot. Every data operation declares the prerequisites
// it needs; a resolver acquires missing ones in a fixed order and retries
// the operation within an explicit bound.
package degiro

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const (
	defaultBaseURL       = "https://trader.degiro.nl/"
	defaultMarketDataURL = "https://charting.vwdservices.com/hchart/v1/deGiro/data.js"
	refererURL           = "https://trader.degiro.nl/trader/"

	loginPath         = "login/secure/login"
	accountConfigPath = "login/secure/config"

	requestTimeout = 30 * time.Second
)

// prerequisite is one element of the session state a data operation needs
// before it can address the broker.
type prerequisite uint8

const (
	needSession prerequisite = 1 << iota
	needEndpoints
	needAccount
)

// resolveBound caps the resolver loop of a single top-level call: one pass
// may acquire prerequisites, one may re-authenticate, and the last must
// succeed outright.
const resolveBound = 3

// endpoints is the URL map derived from the account config response. The
// report URLs are optional; not every account tier exposes them.
type endpoints struct {
	accountURL             string
	productSearchURL       string
	tradingURL             string
	reportingURL           string
	financialStatementsURL string
	companyRatiosURL       string
}

func (e *endpoints) complete() bool {
	return e.accountURL != "" &&
		e.productSearchURL != "" &&
		e.tradingURL != "" &&
		e.reportingURL != ""
}

// Config carries the construction parameters of a Client. Credentials are
// held in memory only and are never written to logs or disk.
type Config struct {
	Username      string
	Password      string
	BaseURL       string
	MarketDataURL string
	// SecretsFile, when non-empty, persists the session token and cookies
	// so a restarted process can resume without a fresh login.
	SecretsFile string
	HTTPClient  *http.Client
	Logger      trading.Logger
}

type seriesKey struct {
	id         string
	period     trading.Period
	resolution trading.Period
}

// Client is the authenticated broker gateway. All exported operations are
// safe for concurrent use.
type Client struct {
	username string
	password string

	baseURL       string
	marketDataURL string
	secretsFile   string

	http   *http.Client
	logger trading.Logger

	sessionMutex sync.RWMutex
	sessionID    string
	userToken    int64
	account      *trading.Account
	endpoints    endpoints

	loginGroup singleflight.Group

	instrumentsMutex sync.RWMutex
	instruments      map[string]*trading.Instrument

	seriesMutex sync.RWMutex
	series      map[seriesKey]*trading.PriceSeries
}

// NewClient assembles a gateway from the given config and, when a secrets
// file is configured and readable, resumes the previous session from it.
func NewClient(config *Config) (*Client, error) {
	logger := config.Logger.WithField("component", "degiro")

	httpClient := config.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	marketDataURL := config.MarketDataURL
	if marketDataURL == "" {
		marketDataURL = defaultMarketDataURL
	}

	client := &Client{
		username:      config.Username,
		password:      config.Password,
		baseURL:       baseURL,
		marketDataURL: marketDataURL,
		secretsFile:   config.SecretsFile,
		http:          httpClient,
		logger:        logger,
		instruments:   make(map[string]*trading.Instrument),
		series:        make(map[seriesKey]*trading.PriceSeries),
	}

	if err := client.loadSecrets(); err != nil {
		logger.Warningf("could not resume previous session: [%v]", err)
	}

	return client, nil
}

// Authorize establishes a fresh session. Concurrent callers share one
// upstream login through the single-flight group; each caller observes the
// shared outcome.
func (c *Client) Authorize(ctx context.Context) error {
	_, err, _ := c.loginGroup.Do("login", func() (interface{}, error) {
		return nil, c.login(ctx)
	})
	return err
}

// hasPrerequisite reports whether the session state already satisfies the
// given prerequisite.
func (c *Client) hasPrerequisite(p prerequisite) bool {
	c.sessionMutex.RLock()
	defer c.sessionMutex.RUnlock()

	switch p {
	case needSession:
		return c.sessionID != ""
	case needEndpoints:
		return c.endpoints.complete() && c.userToken != 0
	case needAccount:
		return c.account != nil
	default:
		return false
	}
}

// producer returns the operation that acquires the given prerequisite.
func (c *Client) producer(p prerequisite) func(context.Context) error {
	switch p {
	case needSession:
		return c.Authorize
	case needEndpoints:
		return c.resolveEndpoints
	case needAccount:
		return c.fetchAccount
	default:
		return nil
	}
}

// prerequisiteOrder fixes the acquisition order: a session is needed to
// derive endpoints, and endpoints are needed to fetch the account.
var prerequisiteOrder = []prerequisite{needSession, needEndpoints, needAccount}

// resolve runs op once its prerequisites hold. Each loop iteration first
// acquires every missing prerequisite in the fixed order, then runs op.
// The loop is bounded: one 401 buys one re-authentication and one retry,
// and nothing else restarts it. A producer that completes without clearing
// its prerequisite, or a spent bound, yields ErrAuthChainExhausted.
func (c *Client) resolve(
	ctx context.Context,
	needs prerequisite,
	op func(context.Context) error,
) error {
	reauthorized := false

	for attempt := 0; attempt < resolveBound; attempt++ {
		err := c.acquire(ctx, needs)
		if err == nil {
			err = op(ctx)
			if err == nil {
				return nil
			}
		}

		// A 401 can surface from the operation itself or from a producer
		// acquiring its prerequisites with a stale resumed session; both
		// buy the same single re-authentication.
		if errors.Is(err, trading.ErrUnauthorized) {
			if reauthorized {
				// A fresh session that is still rejected will not get
				// better on further retries.
				return trading.ErrAuthChainExhausted
			}
			reauthorized = true
			c.dropSession()
			if err := c.Authorize(ctx); err != nil {
				return err
			}
			continue
		}

		return err
	}

	return trading.ErrAuthChainExhausted
}

// acquire walks the prerequisite chain in order and invokes the producer
// of every missing element. A producer that returns success while its
// prerequisite is still absent would loop forever if trusted, so it is
// reported as an exhausted chain instead.
func (c *Client) acquire(ctx context.Context, needs prerequisite) error {
	for _, p := range prerequisiteOrder {
		if needs&p == 0 {
			continue
		}
		if c.hasPrerequisite(p) {
			continue
		}
		if err := c.producer(p)(ctx); err != nil {
			return err
		}
		if !c.hasPrerequisite(p) {
			return trading.ErrAuthChainExhausted
		}
	}
	return nil
}

// dropSession forgets the session token after an upstream 401 so that the
// resolver acquires a fresh one.
func (c *Client) dropSession() {
	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()

	c.sessionID = ""
}

// session returns a consistent snapshot of the addressing state.
func (c *Client) session() (sessionID string, userToken int64, account *trading.Account, e endpoints) {
	c.sessionMutex.RLock()
	defer c.sessionMutex.RUnlock()

	return c.sessionID, c.userToken, c.account, c.endpoints
}
