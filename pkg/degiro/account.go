package degiro

import (
	"context"
	"net/url"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type accountResponse struct {
	Data *trading.Account `json:"data"`
}

// fetchAccount populates the account snapshot behind most data calls. It
// needs a session and the resolved endpoint map.
func (c *Client) fetchAccount(ctx context.Context) error {
	sessionID, _, _, resolved := c.session()

	query := url.Values{}
	query.Set("sessionId", sessionID)

	var decoded accountResponse
	err := c.getJSON(ctx, joinURL(resolved.accountURL, "client"), query, &decoded)
	if err != nil {
		return err
	}

	if decoded.Data == nil || decoded.Data.IntAccount == 0 {
		return &trading.DecodeError{Entity: "account", Field: "intAccount"}
	}

	c.sessionMutex.Lock()
	c.account = decoded.Data
	c.sessionMutex.Unlock()

	c.logger.WithField("account", decoded.Data.IntAccount).
		Debugf("fetched account snapshot")

	return nil
}

// Account returns the account snapshot, resolving prerequisites first.
func (c *Client) Account(ctx context.Context) (*trading.Account, error) {
	err := c.resolve(
		ctx,
		needSession|needEndpoints|needAccount,
		func(ctx context.Context) error { return nil },
	)
	if err != nil {
		return nil, err
	}

	_, _, account, _ := c.session()
	return account, nil
}
