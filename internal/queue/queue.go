package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TopicCallEvents carries gateway webhooks waiting to be stored as call logs.
const TopicCallEvents = "call_events"

const defaultMaxRetries = 3

// Handler processes one message. Returning an error retries the message
// unless the error is wrapped with Permanent.
type Handler func(ctx context.Context, payload []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. a payload that can't be decoded.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// InMemoryQueue delivers messages to subscribers in-process, retrying
// failed handlers with a linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	closed   bool

	log        logrus.FieldLogger
	maxRetries int
	backoff    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInMemoryQueue creates a new queue. maxRetries <= 0 uses the default of 3.
func NewInMemoryQueue(log logrus.FieldLogger, maxRetries int, backoff time.Duration) *InMemoryQueue {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		log:        log,
		maxRetries: maxRetries,
		backoff:    backoff,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(_ context.Context, topic string, payload []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue closed")
	}
	handlers := q.handlers[topic]
	q.wg.Add(len(handlers))
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, payload)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler Handler, payload []byte) {
	defer q.wg.Done()

	for attempt := 1; ; attempt++ {
		err := handler(q.ctx, payload)
		if err == nil {
			return
		}

		entry := q.log.WithFields(logrus.Fields{"topic": topic, "attempt": attempt}).WithError(err)
		if IsPermanent(err) {
			entry.Warn("⚠️ Dropping message")
			return
		}
		if attempt > q.maxRetries {
			entry.Error("Job permanently failed")
			return
		}
		entry.Warn("Job failed, retrying")

		select {
		case <-time.After(time.Duration(attempt) * q.backoff):
		case <-q.ctx.Done():
			return
		}
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published message has been handled or dropped.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// Close stops pending retries and waits for running handlers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
