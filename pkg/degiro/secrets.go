package degiro

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
)

// secrets is the on-disk session carry-over. It never contains the
// credentials, only the short-lived session token and the cookies the
// broker set during the last login.
type secrets struct {
	SessionID string           `json:"sessionId"`
	Cookies   []*secretsCookie `json:"cookies"`
}

type secretsCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path"`
}

// loadSecrets resumes the previous session from the secrets file. A missing
// file is not an error; the next call simply logs in afresh.
func (c *Client) loadSecrets() error {
	if c.secretsFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.secretsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read secrets file: [%v]", err)
	}

	var stored secrets
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("could not decode secrets file: [%v]", err)
	}

	c.sessionMutex.Lock()
	c.sessionID = stored.SessionID
	c.sessionMutex.Unlock()

	if c.http.Jar != nil && len(stored.Cookies) > 0 {
		baseURL, err := url.Parse(c.baseURL)
		if err != nil {
			return fmt.Errorf("could not parse base URL: [%v]", err)
		}

		cookies := make([]*http.Cookie, len(stored.Cookies))
		for i, stored := range stored.Cookies {
			cookies[i] = &http.Cookie{
				Name:  stored.Name,
				Value: stored.Value,
				Path:  stored.Path,
			}
		}

		c.http.Jar.SetCookies(baseURL, cookies)
	}

	c.logger.Infof("resumed previous session from secrets file")

	return nil
}

// saveSecrets writes the current session token and cookies to the secrets
// file with owner-only permissions.
func (c *Client) saveSecrets() error {
	if c.secretsFile == "" {
		return nil
	}

	stored := secrets{}

	c.sessionMutex.RLock()
	stored.SessionID = c.sessionID
	c.sessionMutex.RUnlock()

	if c.http.Jar != nil {
		baseURL, err := url.Parse(c.baseURL)
		if err != nil {
			return fmt.Errorf("could not parse base URL: [%v]", err)
		}

		for _, cookie := range c.http.Jar.Cookies(baseURL) {
			stored.Cookies = append(stored.Cookies, &secretsCookie{
				Name:  cookie.Name,
				Value: cookie.Value,
				Path:  cookie.Path,
			})
		}
	}

	raw, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("could not encode secrets: [%v]", err)
	}

	if err := os.WriteFile(c.secretsFile, raw, 0o600); err != nil {
		return fmt.Errorf("could not write secrets file: [%v]", err)
	}

	return nil
}
