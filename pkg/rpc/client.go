package rpc

import (
	"fmt"
	"net"
	"time"
)

// responseTimeout is how long the front-end waits for the daemon's reply
// before giving up. There is no automatic retry; the user decides.
const responseTimeout = 60 * time.Second

// Client is the blocking front-end connector: one connection, one request,
// one response.
type Client struct {
	address string
	timeout time.Duration
}

func NewClient(address string) *Client {
	return &Client{
		address: address,
		timeout: responseTimeout,
	}
}

// Call sends one request and awaits one response. A timeout or a dropped
// connection yields a nil response with no error, which callers render as
// "no response".
func (c *Client) Call(request Request) (Response, error) {
	payload, err := EncodeRequest(request)
	if err != nil {
		return nil, err
	}

	connection, err := net.DialTimeout("tcp", c.address, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect [%v]: [%v]", c.address, err)
	}
	defer func() {
		_ = connection.Close()
	}()

	if err := connection.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("could not set connection deadline: [%v]", err)
	}

	if err := writeFrame(connection, payload); err != nil {
		return nil, err
	}

	reply, err := readFrame(connection)
	if err != nil {
		return nil, nil
	}

	return DecodeResponse(reply)
}
