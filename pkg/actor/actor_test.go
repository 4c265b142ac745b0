package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type noopLogger struct{}

func (nl *noopLogger) Debugf(format string, args ...interface{})   {}
func (nl *noopLogger) Infof(format string, args ...interface{})    {}
func (nl *noopLogger) Warningf(format string, args ...interface{}) {}
func (nl *noopLogger) Errorf(format string, args ...interface{})   {}
func (nl *noopLogger) Fatalf(format string, args ...interface{})   {}

func (nl *noopLogger) WithField(key string, value interface{}) trading.Logger {
	return nl
}

func (nl *noopLogger) WithFields(fields map[string]interface{}) trading.Logger {
	return nl
}

func newTestSystem(t *testing.T) (*System, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	system := NewSystem(
		ctx,
		&noopLogger{},
		WithRestartBackoff(5*time.Millisecond),
	)

	return system, cancel
}

type echoHandler struct{}

func (eh *echoHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	return message, nil
}

type panicOnceHandler struct {
	mutex  sync.Mutex
	panics int
}

func (poh *panicOnceHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	if message == "boom" {
		poh.mutex.Lock()
		poh.panics++
		poh.mutex.Unlock()
		panic("boom")
	}

	return message, nil
}

type countingConstructor struct {
	mutex sync.Mutex
	calls int
}

func (cc *countingConstructor) construct(handler Handler) Constructor {
	return func(self *Ref) (Handler, error) {
		cc.mutex.Lock()
		cc.calls++
		cc.mutex.Unlock()

		return handler, nil
	}
}

func (cc *countingConstructor) count() int {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	return cc.calls
}

func TestAskReturnsHandlerReply(t *testing.T) {
	system, _ := newTestSystem(t)

	ref := system.Spawn("echo", func(self *Ref) (Handler, error) {
		return &echoHandler{}, nil
	})

	reply, err := ref.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if reply != "hello" {
		t.Fatalf("unexpected reply: [%v]", reply)
	}
}

type failingHandler struct{}

func (fh *failingHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	return nil, errors.New("not today")
}

func TestHandlerErrorIsReplyNotRestart(t *testing.T) {
	system, _ := newTestSystem(t)

	constructor := &countingConstructor{}

	ref := system.Spawn(
		"failing",
		constructor.construct(&failingHandler{}),
	)

	for i := 0; i < 3; i++ {
		_, err := ref.Ask(context.Background(), "anything")
		if err == nil || err.Error() != "not today" {
			t.Fatalf("unexpected error: [%v]", err)
		}
	}

	if constructor.count() != 1 {
		t.Fatalf(
			"unexpected constructor calls: [%v]",
			constructor.count(),
		)
	}
}

func TestPanicRepliesWithErrorAndRestarts(t *testing.T) {
	system, _ := newTestSystem(t)

	constructor := &countingConstructor{}

	ref := system.Spawn(
		"panicky",
		constructor.construct(&panicOnceHandler{}),
	)

	_, err := ref.Ask(context.Background(), "boom")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: [%v]", err)
	}

	// The mailbox outlives the incarnation, so the next ask lands on
	// the restarted actor without the caller doing anything special.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := ref.Ask(ctx, "after")
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if reply != "after" {
		t.Fatalf("unexpected reply: [%v]", reply)
	}

	if constructor.count() != 2 {
		t.Fatalf(
			"unexpected constructor calls: [%v]",
			constructor.count(),
		)
	}
}

type slowHandler struct {
	release chan struct{}
}

func (sh *slowHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	<-sh.release
	return message, nil
}

func TestSiblingRestartDoesNotDisturbInFlightAsk(t *testing.T) {
	system, _ := newTestSystem(t)

	release := make(chan struct{})

	slow := system.Spawn("slow", func(self *Ref) (Handler, error) {
		return &slowHandler{release: release}, nil
	})

	panicky := system.Spawn("panicky", func(self *Ref) (Handler, error) {
		return &panicOnceHandler{}, nil
	})

	replies := make(chan string, 1)
	errs := make(chan error, 1)

	go func() {
		reply, err := slow.Ask(context.Background(), "pending")
		if err != nil {
			errs <- err
			return
		}
		replies <- reply.(string)
	}()

	// Crash the sibling while the slow ask is in flight, then let the
	// slow handler finish.
	if _, err := panicky.Ask(context.Background(), "boom"); err == nil {
		t.Fatalf("expected panic error")
	}

	close(release)

	select {
	case reply := <-replies:
		if reply != "pending" {
			t.Fatalf("unexpected reply: [%v]", reply)
		}
	case err := <-errs:
		t.Fatalf("unexpected error: [%v]", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("in-flight ask never completed")
	}
}

type disciplineHandler struct {
	mutex   sync.Mutex
	active  int
	overlap bool
	block   chan struct{}
}

func (dh *disciplineHandler) HandlesConcurrently(message interface{}) bool {
	_, concurrent := message.(concurrentProbe)
	return concurrent
}

type concurrentProbe struct{ id int }

type sequentialProbe struct{ id int }

func (dh *disciplineHandler) Handle(
	ctx context.Context,
	message interface{},
) (interface{}, error) {
	dh.mutex.Lock()
	dh.active++
	if dh.active > 1 {
		dh.overlap = true
	}
	dh.mutex.Unlock()

	if dh.block != nil {
		select {
		case <-dh.block:
		case <-time.After(100 * time.Millisecond):
		}
	}

	dh.mutex.Lock()
	dh.active--
	dh.mutex.Unlock()

	return message, nil
}

func TestSequentialMessagesNeverOverlap(t *testing.T) {
	system, _ := newTestSystem(t)

	handler := &disciplineHandler{}

	ref := system.Spawn("disciplined", func(self *Ref) (Handler, error) {
		return handler, nil
	})

	var waitGroup sync.WaitGroup
	for i := 0; i < 16; i++ {
		waitGroup.Add(1)
		go func(id int) {
			defer waitGroup.Done()
			_, err := ref.Ask(context.Background(), sequentialProbe{id: id})
			if err != nil {
				t.Errorf("unexpected error: [%v]", err)
			}
		}(i)
	}
	waitGroup.Wait()

	handler.mutex.Lock()
	defer handler.mutex.Unlock()

	if handler.overlap {
		t.Fatalf("sequential messages handled concurrently")
	}
}

func TestConcurrentMessagesOverlap(t *testing.T) {
	system, _ := newTestSystem(t)

	handler := &disciplineHandler{block: make(chan struct{})}

	ref := system.Spawn("concurrent", func(self *Ref) (Handler, error) {
		return handler, nil
	})

	var waitGroup sync.WaitGroup
	for i := 0; i < 4; i++ {
		waitGroup.Add(1)
		go func(id int) {
			defer waitGroup.Done()
			_, err := ref.Ask(context.Background(), concurrentProbe{id: id})
			if err != nil {
				t.Errorf("unexpected error: [%v]", err)
			}
		}(i)
	}

	// Give the asks time to land, then release all of them at once.
	time.Sleep(50 * time.Millisecond)
	close(handler.block)

	waitGroup.Wait()

	handler.mutex.Lock()
	defer handler.mutex.Unlock()

	if !handler.overlap {
		t.Fatalf("concurrent messages never overlapped")
	}
}

func TestTellDoesNotWaitForReply(t *testing.T) {
	system, _ := newTestSystem(t)

	release := make(chan struct{})

	ref := system.Spawn("slow", func(self *Ref) (Handler, error) {
		return &slowHandler{release: release}, nil
	})

	done := make(chan struct{})
	go func() {
		if err := ref.Tell(context.Background(), "fire and forget"); err != nil {
			t.Errorf("unexpected error: [%v]", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("tell blocked on handler")
	}

	close(release)
}

func TestAskFailsWhenSystemStopped(t *testing.T) {
	system, cancel := newTestSystem(t)

	ref := system.Spawn("echo", func(self *Ref) (Handler, error) {
		return &echoHandler{}, nil
	})

	if _, err := ref.Ask(context.Background(), "warm up"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	cancel()

	ctx, ctxCancel := context.WithTimeout(
		context.Background(),
		100*time.Millisecond,
	)
	defer ctxCancel()

	_, err := ref.Ask(ctx, "too late")
	if err == nil {
		t.Fatalf("expected error after system stop")
	}

	if !strings.Contains(err.Error(), fmt.Sprintf("[%v]", "echo")) {
		t.Fatalf("unexpected error: [%v]", err)
	}
}
