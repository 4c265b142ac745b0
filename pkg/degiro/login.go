package degiro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type loginRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	IsPassCodeReset    bool   `json:"isPassCodeReset"`
	IsRedirectToMobile bool   `json:"isRedirectToMobile"`
}

type loginResponse struct {
	SessionID  string `json:"sessionId"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// login posts the credentials to the fixed login path and stores the
// returned session token. A rejected login is fatal for the call; there is
// no internal retry here.
func (c *Client) login(ctx context.Context) error {
	c.logger.Infof("authorizing")

	body, err := json.Marshal(&loginRequest{
		Username: c.username,
		Password: c.password,
	})
	if err != nil {
		return fmt.Errorf("could not encode login request: [%v]", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		joinURL(c.baseURL, loginPath),
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("could not build login request: [%v]", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Referer", refererURL)
	request.URL.RawQuery = "reason=session_expired"

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("%w: [%v]", trading.ErrUnreachable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &trading.UpstreamError{Status: response.StatusCode, Path: loginPath}
	}

	var decoded loginResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("could not decode login response: [%v]", err)
	}

	// A login the server accepted but answered without a session token can
	// never be repaired by further logins.
	if decoded.SessionID == "" {
		return fmt.Errorf(
			"%w: login returned no session token",
			trading.ErrAuthChainExhausted,
		)
	}

	c.sessionMutex.Lock()
	c.sessionID = decoded.SessionID
	c.sessionMutex.Unlock()

	if err := c.saveSecrets(); err != nil {
		c.logger.Warningf("could not persist session secrets: [%v]", err)
	}

	c.logger.Infof("authorized successfully")

	return nil
}
