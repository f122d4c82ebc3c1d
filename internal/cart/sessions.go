package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/fjod/rocketcart/internal/catalog"
	"github.com/fjod/rocketcart/internal/notify"
	"github.com/fjod/rocketcart/internal/storage"
	"golang.org/x/sync/singleflight"
)

// DefaultSessionCapacity is how many carts Sessions keeps in memory.
const DefaultSessionCapacity = 10000

const loadTimeout = 10 * time.Second

// Sessions hands out one Store per client session, each persisted under its
// own key. Only the most recently used stores stay in memory; an evicted
// session is reloaded from its snapshot on next use.
type Sessions struct {
	prefix    string
	snapshots storage.SnapshotStore
	catalog   catalog.Catalog
	notifier  notify.Notifier
	logger    *slog.Logger

	stores *lru.Cache
	sfg    singleflight.Group // one snapshot load per key
}

// NewSessions keeps at most capacity stores in memory, DefaultSessionCapacity
// when capacity is not positive.
func NewSessions(prefix string, capacity int, snapshots storage.SnapshotStore, c catalog.Catalog,
	notifier notify.Notifier, logger *slog.Logger) *Sessions {
	if prefix == "" {
		prefix = DefaultKey
	}
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	stores, err := lru.New(capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(fmt.Sprintf("cart: session cache: %v", err))
	}
	return &Sessions{
		prefix:    prefix,
		snapshots: snapshots,
		catalog:   c,
		notifier:  notifier,
		logger:    logger,
		stores:    stores,
	}
}

// Key maps a session id to its storage key. The empty session uses the
// prefix itself.
func (s *Sessions) Key(sessionID string) string {
	if sessionID == "" {
		return s.prefix
	}
	return s.prefix + ":" + sessionID
}

// Len reports how many stores are held in memory.
func (s *Sessions) Len() int {
	return s.stores.Len()
}

// Get returns the store for sessionID, loading its snapshot on first use.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Store, error) {
	key := s.Key(sessionID)
	if st, ok := s.lookup(key); ok {
		return st, nil
	}

	// The load is shared by every caller of this key, so it must not end
	// when the first of them goes away.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		if st, ok := s.lookup(key); ok {
			return st, nil
		}
		lctx, cancel := context.WithTimeout(loadCtx, loadTimeout)
		defer cancel()

		st, err := New(lctx, key, s.snapshots, s.catalog, s.notifier, s.logger)
		if err != nil {
			return nil, err
		}
		s.stores.Add(key, st)
		return st, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Store), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("open cart %q: %w", key, ctx.Err())
	}
}

func (s *Sessions) lookup(key string) (*Store, bool) {
	v, ok := s.stores.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Store), true
}
