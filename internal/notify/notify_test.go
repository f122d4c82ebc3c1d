package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
	ctxErr error
	block  chan struct{}
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWriter) written() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.msgs...)
}

func outOfStock() Message {
	return Message{
		Severity:  SeverityError,
		Text:      "Requested quantity is out of stock",
		Kind:      "stock_exceeded",
		ProductID: 1,
		CartKey:   "@RocketShoes:cart",
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(context.Background(), outOfStock())
	r.Notify(context.Background(), Message{Text: "second"})

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[1].Text)

	r.Reset()
	assert.Empty(t, r.Messages())
}

func TestFanout(t *testing.T) {
	var a, b Recorder
	Fanout{&a, &b}.Notify(context.Background(), outOfStock())

	assert.Len(t, a.Messages(), 1)
	assert.Len(t, b.Messages(), 1)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewLog(logger).Notify(context.Background(), outOfStock())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Requested quantity is out of stock", entry["msg"])
	assert.Equal(t, "stock_exceeded", entry["kind"])
	assert.Equal(t, float64(1), entry["product_id"])
}

func TestKafka_Publishes(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, time.Second, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	k.Notify(ctx, outOfStock())
	require.NoError(t, k.Close())

	msgs := w.written()
	require.Len(t, msgs, 1)
	assert.NoError(t, w.ctxErr, "publishing must not inherit request cancellation")
	assert.Equal(t, "@RocketShoes:cart", string(msgs[0].Key))

	var got Message
	require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
	assert.Equal(t, outOfStock(), got)
	assert.Equal(t, "severity", msgs[0].Headers[0].Key)
	assert.Equal(t, "error", string(msgs[0].Headers[0].Value))
	assert.True(t, w.closed)
}

func TestKafka_WriteErrorIsSwallowed(t *testing.T) {
	var buf syncBuffer
	w := &fakeWriter{err: errors.New("broker down")}
	k := newKafka(w, time.Second, slog.New(slog.NewJSONHandler(&buf, nil)))

	k.Notify(context.Background(), outOfStock())
	require.NoError(t, k.Close())

	assert.Contains(t, buf.String(), "failed to publish notification")
	assert.Contains(t, buf.String(), "broker down")
}

func TestKafka_NotifyDoesNotWaitForBroker(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	k := newKafka(w, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	for i := 0; i < 3; i++ {
		k.Notify(context.Background(), outOfStock())
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Empty(t, w.written())

	close(w.block)
	require.NoError(t, k.Close())
	assert.Len(t, w.written(), 3)
}

func TestKafka_DropsWhenQueueFull(t *testing.T) {
	var buf syncBuffer
	w := &fakeWriter{block: make(chan struct{})}
	k := newKafka(w, time.Second, slog.New(slog.NewJSONHandler(&buf, nil)))

	// one message is held by the blocked writer, queueSize wait behind it
	for i := 0; i < queueSize+5; i++ {
		k.Notify(context.Background(), outOfStock())
	}
	assert.Contains(t, buf.String(), "publish queue full")

	close(w.block)
	require.NoError(t, k.Close())
	assert.GreaterOrEqual(t, len(w.written()), queueSize)
}

func TestKafka_NotifyAfterCloseIsDropped(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, k.Close())

	k.Notify(context.Background(), outOfStock())
	assert.Empty(t, w.written())
}

// syncBuffer is a bytes.Buffer safe for the publisher goroutine to log into.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
