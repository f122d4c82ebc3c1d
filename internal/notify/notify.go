package notify

import (
	"context"
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Message is a transient user-facing notice, the storefront's toast.
type Message struct {
	Severity  Severity  `json:"severity"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind,omitempty"`
	ProductID int64     `json:"product_id,omitempty"`
	CartKey   string    `json:"cart_key,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier delivers messages fire-and-forget: implementations log their own
// delivery failures and never report them to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Fanout delivers every message to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, msg Message) {
	for _, n := range f {
		n.Notify(ctx, msg)
	}
}

// Recorder keeps every message it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(_ context.Context, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
