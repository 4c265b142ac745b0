package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

// Dispatcher routes one decoded request into the daemon and produces the
// response to write back. A nil response means "no meaningful reply" and
// travels as the absent marker.
type Dispatcher interface {
	Dispatch(ctx context.Context, request Request) Response
}

// Server is the TCP shell of the daemon. Each accepted connection gets a
// dedicated reader and writer: requests are dispatched concurrently and a
// slow dispatch never blocks responses already queued for the socket.
type Server struct {
	address    string
	dispatcher Dispatcher
	logger     trading.Logger

	mutex    sync.Mutex
	listener net.Listener
}

func NewServer(
	address string,
	dispatcher Dispatcher,
	logger trading.Logger,
) *Server {
	return &Server{
		address:    address,
		dispatcher: dispatcher,
		logger:     logger.WithField("component", "rpc"),
	}
}

// Address returns the bound listener address, or empty before Run has
// bound it. Useful when the configured port is 0.
func (s *Server) Address() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run accepts connections until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("could not listen on [%v]: [%v]", s.address, err)
	}

	s.mutex.Lock()
	s.listener = listener
	s.mutex.Unlock()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	s.logger.WithField("address", listener.Addr().String()).
		Infof("server listening")

	for {
		connection, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("could not accept connection: [%v]", err)
		}

		go s.handleConnection(ctx, connection)
	}
}

func (s *Server) handleConnection(ctx context.Context, connection net.Conn) {
	connectionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		_ = connection.Close()
	}()

	logger := s.logger.WithField("connection", uuid.New().String())
	logger.Debugf("connection accepted")

	responses := make(chan Response, 16)

	// Writer drains the response queue on its own goroutine so the reader
	// keeps accepting requests while earlier ones are still in flight.
	go func() {
		for {
			select {
			case response := <-responses:
				payload, err := EncodeResponse(response)
				if err != nil {
					logger.Errorf("could not encode response: [%v]", err)
					cancel()
					return
				}
				if err := writeFrame(connection, payload); err != nil {
					logger.Debugf("could not write response: [%v]", err)
					cancel()
					return
				}
			case <-connectionCtx.Done():
				return
			}
		}
	}()

	for {
		payload, err := readFrame(connection)
		if err != nil {
			if !errors.Is(err, io.EOF) && connectionCtx.Err() == nil {
				logger.Debugf("could not read request: [%v]", err)
			}
			logger.Debugf("connection closed")
			return
		}

		request, err := DecodeRequest(payload)
		if err != nil {
			logger.Warningf("dropping malformed request: [%v]", err)
			return
		}

		go func() {
			response := s.dispatcher.Dispatch(connectionCtx, request)
			select {
			case responses <- response:
			case <-connectionCtx.Done():
			}
		}()
	}
}
