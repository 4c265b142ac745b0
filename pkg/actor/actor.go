// Package actor is a small mailbox-based actor runtime. Every actor owns
// one goroutine draining its mailbox; message handling is sequential by
// default and an actor can declare specific message types concurrent. A
// supervisor restarts a failed actor in isolation: the mailbox belongs to
// the reference, not the incarnation, so messages queued or in flight at
// sibling actors are unaffected by a restart.
package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

const mailboxCapacity = 1024

const defaultRestartBackoff = 10 * time.Second

// Handler processes the messages of one actor incarnation. A returned
// error is delivered to the asking caller; a panic kills the incarnation
// and triggers a restart.
type Handler interface {
	Handle(ctx context.Context, message interface{}) (interface{}, error)
}

// Concurrent is implemented by handlers that want some message types
// handled off the mailbox goroutine. Everything else stays sequential.
type Concurrent interface {
	HandlesConcurrently(message interface{}) bool
}

// Constructor builds a fresh incarnation. It runs once at spawn and again
// after every failure. The actor's own reference is passed in so a handler
// can re-submit work to its own mailbox.
type Constructor func(self *Ref) (Handler, error)

type envelope struct {
	message interface{}
	reply   chan reply
}

type reply struct {
	value interface{}
	err   error
}

// Ref addresses one actor. It stays valid across restarts of the actor
// behind it.
type Ref struct {
	name    string
	mailbox chan *envelope
}

func (r *Ref) Name() string {
	return r.name
}

// Tell enqueues a message without waiting for an outcome.
func (r *Ref) Tell(ctx context.Context, message interface{}) error {
	select {
	case r.mailbox <- &envelope{message: message}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("could not deliver message to [%v]: [%v]", r.name, ctx.Err())
	}
}

// Ask enqueues a message and blocks until the actor replies.
func (r *Ref) Ask(ctx context.Context, message interface{}) (interface{}, error) {
	replies := make(chan reply, 1)

	select {
	case r.mailbox <- &envelope{message: message, reply: replies}:
	case <-ctx.Done():
		return nil, fmt.Errorf(
			"could not deliver message to [%v]: [%v]",
			r.name, ctx.Err(),
		)
	}

	select {
	case outcome := <-replies:
		return outcome.value, outcome.err
	case <-ctx.Done():
		return nil, fmt.Errorf(
			"no reply from [%v]: [%v]",
			r.name, ctx.Err(),
		)
	}
}

// System spawns and supervises actors.
type System struct {
	ctx            context.Context
	logger         trading.Logger
	restartBackoff time.Duration
}

type Option func(*System)

// WithRestartBackoff overrides how long a crashed actor stays down before
// its next incarnation.
func WithRestartBackoff(backoff time.Duration) Option {
	return func(s *System) {
		s.restartBackoff = backoff
	}
}

func NewSystem(
	ctx context.Context,
	logger trading.Logger,
	options ...Option,
) *System {
	system := &System{
		ctx:            ctx,
		logger:         logger,
		restartBackoff: defaultRestartBackoff,
	}

	for _, option := range options {
		option(system)
	}

	return system
}

// Spawn starts a named actor and returns its reference. The supervisor
// goroutine lives until the system context is cancelled.
func (s *System) Spawn(name string, constructor Constructor) *Ref {
	ref := &Ref{
		name:    name,
		mailbox: make(chan *envelope, mailboxCapacity),
	}

	go s.supervise(ref, constructor)

	return ref
}

func (s *System) supervise(ref *Ref, constructor Constructor) {
	logger := s.logger.WithField("actor", ref.name)

	for {
		if s.ctx.Err() != nil {
			return
		}

		incarnation := uuid.New().String()

		handler, err := constructor(ref)
		if err != nil {
			logger.Errorf("could not construct actor: [%v]", err)
			s.backoff()
			continue
		}

		logger.WithField("incarnation", incarnation).Infof("actor running")

		err = s.runIncarnation(ref, handler)
		if err == nil {
			return
		}

		logger.Errorf("actor failed: [%v]; restarting", err)

		s.backoff()
	}
}

func (s *System) backoff() {
	select {
	case <-time.After(s.restartBackoff):
	case <-s.ctx.Done():
	}
}

// runIncarnation drains the mailbox until the system stops or the
// incarnation fails. Sequential messages are handled inline, so they
// serialize naturally; concurrent ones run on their own goroutines and
// report failures back through the failure channel.
func (s *System) runIncarnation(ref *Ref, handler Handler) error {
	failures := make(chan error, 1)

	concurrent, _ := handler.(Concurrent)

	for {
		select {
		case <-s.ctx.Done():
			return nil

		case err := <-failures:
			return err

		case env := <-ref.mailbox:
			if concurrent != nil && concurrent.HandlesConcurrently(env.message) {
				go func() {
					if err := s.handle(handler, env); err != nil {
						select {
						case failures <- err:
						default:
						}
					}
				}()
				continue
			}

			if err := s.handle(handler, env); err != nil {
				return err
			}
		}
	}
}

// handle runs one message and delivers the outcome. A recovered panic is
// delivered to the caller as an error and returned as the incarnation
// failure.
func (s *System) handle(handler Handler, env *envelope) (failure error) {
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("handler panicked: [%v]", r)
			deliver(env, nil, failure)
		}
	}()

	value, err := handler.Handle(s.ctx, env.message)
	deliver(env, value, err)

	return nil
}

func deliver(env *envelope, value interface{}, err error) {
	if env.reply == nil {
		return
	}

	env.reply <- reply{value: value, err: err}
}
