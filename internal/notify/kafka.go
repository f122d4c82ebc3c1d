package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "cart-notifications"

// queueSize bounds how many messages wait for the publisher; beyond it new
// messages are dropped and logged.
const queueSize = 256

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes messages so storefront clients can subscribe to them.
// Messages are keyed by cart key to keep per-cart ordering. Notify only
// enqueues; a background goroutine does the writes.
type Kafka struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger

	queue     chan kafka.Message
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewKafka(logger *slog.Logger, topic string, brokers ...string) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafka(w, 5*time.Second, logger)
}

func newKafka(w messageWriter, timeout time.Duration, logger *slog.Logger) *Kafka {
	k := &Kafka{
		writer:  w,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan kafka.Message, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go k.run()
	return k
}

func (k *Kafka) Notify(ctx context.Context, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		k.logger.ErrorContext(ctx, "failed to marshal notification", "error", err)
		return
	}

	m := kafka.Message{
		Key:   []byte(msg.CartKey),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "severity", Value: []byte(msg.Severity)},
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	}

	select {
	case <-k.stop:
		k.logger.WarnContext(ctx, "notification dropped, publisher closed", "kind", msg.Kind)
		return
	default:
	}
	select {
	case k.queue <- m:
	default:
		k.logger.WarnContext(ctx, "notification dropped, publish queue full", "kind", msg.Kind)
	}
}

func (k *Kafka) run() {
	defer close(k.done)
	for {
		select {
		case m := <-k.queue:
			k.write(m)
		case <-k.stop:
			for {
				select {
				case m := <-k.queue:
					k.write(m)
				default:
					return
				}
			}
		}
	}
}

func (k *Kafka) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, m); err != nil {
		k.logger.Error("failed to publish notification", "error", err, "cart_key", string(m.Key))
	}
}

// Close flushes queued messages and closes the writer.
func (k *Kafka) Close() error {
	k.closeOnce.Do(func() { close(k.stop) })
	<-k.done
	return k.writer.Close()
}
