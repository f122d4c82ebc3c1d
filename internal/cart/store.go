package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/rocketcart/internal/catalog"
	"github.com/fjod/rocketcart/internal/domain"
	"github.com/fjod/rocketcart/internal/notify"
	"github.com/fjod/rocketcart/internal/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultKey is the storage key the storefront has always used.
const DefaultKey = "@RocketShoes:cart"

const (
	opAdd       = "add"
	opRemove    = "remove"
	opSetAmount = "set_amount"
)

// User-facing texts carried by notifications and HTTP error bodies.
const (
	// MsgOutOfStock is used for every stock ceiling rejection.
	MsgOutOfStock   = "Requested quantity is out of stock"
	MsgAddFailed    = "Failed to add product"
	MsgRemoveFailed = "Failed to remove product"
	MsgUpdateFailed = "Failed to update product amount"
)

// Store owns one cart. Catalog lookups run without holding the lock; the
// decision and the snapshot write happen under it against the current cart,
// so concurrent operations never lose each other's updates.
type Store struct {
	key       string
	snapshots storage.SnapshotStore
	catalog   catalog.Catalog
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.RWMutex
	cart domain.Cart
}

// New loads the snapshot saved under key, starting empty when there is none.
func New(ctx context.Context, key string, snapshots storage.SnapshotStore, c catalog.Catalog,
	notifier notify.Notifier, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		key:       key,
		snapshots: snapshots,
		catalog:   c,
		notifier:  notifier,
		logger:    logger.With("cart_key", key),
		now:       time.Now,
		cart:      domain.Cart{},
	}

	data, err := snapshots.Load(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load cart %q: %w", key, err)
	}

	var loaded domain.Cart
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("decode cart %q: %w", key, err)
	}
	if loaded != nil {
		s.cart = loaded
	}
	return s, nil
}

func (s *Store) Key() string {
	return s.key
}

// Cart returns a copy of the current line items in insertion order.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Add puts one more unit of productID in the cart. A product not yet in the
// cart is appended with amount 1; an existing one is incremented unless that
// would exceed the stock ceiling. It returns the cart as committed.
func (s *Store) Add(ctx context.Context, productID int64) (domain.Cart, error) {
	var (
		stock   domain.StockRecord
		product domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = s.catalog.Stock(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		product, err = s.catalog.Product(gctx, productID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, opAdd, productID, KindFetchFailed, err)
	}

	committed, err := s.mutate(ctx, func(next domain.Cart) (domain.Cart, error) {
		i := next.Index(productID)
		if i < 0 {
			item := domain.NewLineItem(product)
			item.ID = productID
			return append(next, item), nil
		}
		if next[i].Amount+1 > stock.Amount {
			return nil, stockExceeded(next[i].Amount+1, stock.Amount)
		}
		next[i].Amount++
		return next, nil
	})
	if err != nil {
		return nil, s.fail(ctx, opAdd, productID, kindOf(err), err)
	}

	s.logger.DebugContext(ctx, "product added", "product_id", productID)
	return committed, nil
}

// Remove drops productID from the cart keeping the order of the rest.
func (s *Store) Remove(ctx context.Context, productID int64) (domain.Cart, error) {
	committed, err := s.mutate(ctx, func(next domain.Cart) (domain.Cart, error) {
		i := next.Index(productID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		return append(next[:i], next[i+1:]...), nil
	})
	if err != nil {
		return nil, s.fail(ctx, opRemove, productID, kindOf(err), err)
	}

	s.logger.DebugContext(ctx, "product removed", "product_id", productID)
	return committed, nil
}

// SetAmount sets the quantity of a product already in the cart.
// A non-positive amount is ignored without any notification. An amount equal
// to or above the stock ceiling is rejected.
func (s *Store) SetAmount(ctx context.Context, productID int64, amount int) (domain.Cart, error) {
	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return nil, s.fail(ctx, opSetAmount, productID, KindFetchFailed, err)
	}

	if amount <= 0 {
		return s.Cart(), nil
	}
	if amount >= stock.Amount {
		return nil, s.fail(ctx, opSetAmount, productID, KindStockExceeded, stockExceeded(amount, stock.Amount))
	}

	committed, err := s.mutate(ctx, func(next domain.Cart) (domain.Cart, error) {
		i := next.Index(productID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		next[i].Amount = amount
		return next, nil
	})
	if err != nil {
		return nil, s.fail(ctx, opSetAmount, productID, kindOf(err), err)
	}

	s.logger.DebugContext(ctx, "product amount updated", "product_id", productID, "amount", amount)
	return committed, nil
}

// mutate applies change to a copy of the cart, saves the result and only
// then makes it the current cart. The returned copy is exactly what was saved.
func (s *Store) mutate(ctx context.Context, change func(domain.Cart) (domain.Cart, error)) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := change(s.cart.Clone())
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrStorage, err)
	}
	if err := s.snapshots.Save(ctx, s.key, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	s.cart = next
	return next.Clone(), nil
}

func (s *Store) fail(ctx context.Context, op string, productID int64, kind Kind, cause error) error {
	err := &Error{Kind: kind, Op: op, ProductID: productID, Err: cause}

	switch kind {
	case KindStockExceeded:
		s.logger.InfoContext(ctx, "cart operation rejected", "op", op, "product_id", productID, "error", cause)
	case KindItemNotFound:
		s.logger.WarnContext(ctx, "cart operation rejected", "op", op, "product_id", productID, "error", cause)
	default:
		s.logger.ErrorContext(ctx, "cart operation failed", "op", op, "product_id", productID, "error", cause)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.Message{
			Severity:  notify.SeverityError,
			Text:      message(op, kind),
			Kind:      kind.String(),
			ProductID: productID,
			CartKey:   s.key,
			At:        s.now(),
		})
	}
	return err
}

func message(op string, kind Kind) string {
	if kind == KindStockExceeded {
		return MsgOutOfStock
	}
	switch op {
	case opAdd:
		return MsgAddFailed
	case opRemove:
		return MsgRemoveFailed
	default:
		return MsgUpdateFailed
	}
}

func stockExceeded(requested, available int) error {
	return fmt.Errorf("%w: requested %d, available %d", ErrStockExceeded, requested, available)
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrStockExceeded):
		return KindStockExceeded
	case errors.Is(err, ErrItemNotFound):
		return KindItemNotFound
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, catalog.ErrFetchFailed):
		return KindFetchFailed
	default:
		return KindUnknown
	}
}
