package degiro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// getJSON performs an authenticated GET and decodes the body into target.
// Connectivity failures map to ErrUnreachable, a 401 to ErrUnauthorized,
// and any other non-2xx status to an UpstreamError.
func (c *Client) getJSON(
	ctx context.Context,
	rawURL string,
	query url.Values,
	target interface{},
) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("could not build request for [%v]: [%v]", rawURL, err)
	}

	return c.do(request, query, target)
}

// postJSON performs an authenticated POST with a JSON body and decodes the
// response into target.
func (c *Client) postJSON(
	ctx context.Context,
	rawURL string,
	query url.Values,
	body interface{},
	target interface{},
) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not encode request body: [%v]", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		rawURL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("could not build request for [%v]: [%v]", rawURL, err)
	}

	request.Header.Set("Content-Type", "application/json")

	return c.do(request, query, target)
}

func (c *Client) do(
	request *http.Request,
	query url.Values,
	target interface{},
) error {
	if query != nil {
		request.URL.RawQuery = query.Encode()
	}

	request.Header.Set("Referer", refererURL)

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("%w: [%v]", trading.ErrUnreachable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if err := statusError(response.StatusCode, request.URL.Path); err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("could not decode response of [%v]: [%v]", request.URL.Path, err)
	}

	return nil
}

func statusError(status int, path string) error {
	switch {
	case status == http.StatusUnauthorized:
		return trading.ErrUnauthorized
	case status < 200 || status > 299:
		return &trading.UpstreamError{Status: status, Path: path}
	default:
		return nil
	}
}

// joinURL appends a path to a base URL, tolerating a missing or doubled
// slash at the seam.
func joinURL(base, path string) string {
	if len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return base + "/" + path
}
