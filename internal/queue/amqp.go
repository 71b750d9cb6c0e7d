package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/tidwall/gjson"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes to and consumes from durable RabbitMQ queues, one per topic.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	pub  sync.Mutex

	log        logrus.FieldLogger
	maxRetries int
	prefetch   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DialAMQP connects to the broker and opens the channel used for both
// publishing and consuming.
func DialAMQP(url string, prefetch, maxRetries int, log logrus.FieldLogger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPQueue{
		conn:       conn,
		ch:         ch,
		log:        log,
		maxRetries: maxRetries,
		prefetch:   prefetch,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

// Publish stores payload persistently. A top-level "event_id" becomes the message id.
func (q *AMQPQueue) Publish(_ context.Context, topic string, payload []byte) error {
	return q.publish(topic, payload, nil)
}

func (q *AMQPQueue) publish(topic string, payload []byte, headers amqp.Table) error {
	q.pub.Lock()
	defer q.pub.Unlock()

	if err := q.declare(topic); err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    gjson.GetBytes(payload, "event_id").String(),
		Headers:      headers,
		Body:         payload,
	})
}

// Subscribe starts a consumer for topic. Deliveries are acked after the
// handler succeeds; failures are republished with an incremented retry
// header until the retry budget is spent.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	q.pub.Lock()
	err := q.declare(topic)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(
			topic,
			"",
			false, // autoAck = false for reliability
			false,
			false,
			false,
			nil,
		)
	}
	q.pub.Unlock()
	if err != nil {
		return fmt.Errorf("register consumer for %s: %w", topic, err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			q.handle(topic, d, handler)
		}
	}()
	return nil
}

func (q *AMQPQueue) handle(topic string, d amqp.Delivery, handler Handler) {
	retries := retryCount(d.Headers)
	err := handler(q.ctx, d.Body)

	entry := q.log.WithFields(logrus.Fields{
		"topic":      topic,
		"message_id": d.MessageId,
		"retries":    retries,
	})

	switch deliveryAction(err, retries, q.maxRetries) {
	case actionAck:
	case actionDrop:
		entry.WithError(err).Warn("⚠️ Dropping message")
	case actionRetry:
		entry.WithError(err).Warn("Message failed, requeueing")
		headers := amqp.Table{}
		for k, v := range d.Headers {
			headers[k] = v
		}
		headers[retryHeader] = int32(retries + 1)
		if perr := q.publish(topic, d.Body, headers); perr != nil {
			entry.WithError(perr).Error("Failed to requeue message")
			_ = d.Nack(false, true)
			return
		}
	}
	_ = d.Ack(false)
}

type action int

const (
	actionAck action = iota
	actionRetry
	actionDrop
)

func deliveryAction(err error, retries, maxRetries int) action {
	switch {
	case err == nil:
		return actionAck
	case IsPermanent(err):
		return actionDrop
	case retries < maxRetries:
		return actionRetry
	default:
		return actionDrop
	}
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// Close stops the consumers and closes the connection.
func (q *AMQPQueue) Close() error {
	q.cancel()
	chErr := q.ch.Close()
	q.wg.Wait()
	if err := q.conn.Close(); err != nil {
		return err
	}
	return chErr
}

var _ Queue = (*AMQPQueue)(nil)
