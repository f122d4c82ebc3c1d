package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/rocketcart/internal/domain"
)

// Memory is an in-process Catalog. It backs tests and the demo mode that runs
// without a catalog API.
type Memory struct {
	mu       sync.RWMutex
	stocks   map[int64]int            // productID -> purchasable amount
	products map[int64]domain.Product // productID -> display data
	failures map[int64]error
}

func NewMemory() *Memory {
	return &Memory{
		stocks:   make(map[int64]int),
		products: make(map[int64]domain.Product),
		failures: make(map[int64]error),
	}
}

// NewSeededMemory returns a Memory holding the storefront's demo products.
func NewSeededMemory() *Memory {
	m := NewMemory()
	for _, p := range seedProducts {
		m.SetProduct(p.product)
		m.SetStock(p.product.ID, p.stock)
	}
	return m
}

func (m *Memory) SetStock(productID int64, amount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[productID] = amount
}

func (m *Memory) SetProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// Fail makes every lookup of productID return err until cleared with nil.
func (m *Memory) Fail(productID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, productID)
		return
	}
	m.failures[productID] = err
}

func (m *Memory) Stock(ctx context.Context, productID int64) (domain.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.StockRecord{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[productID]; err != nil {
		return domain.StockRecord{}, fmt.Errorf("%w: stock %d: %w", ErrFetchFailed, productID, err)
	}
	amount, ok := m.stocks[productID]
	if !ok {
		return domain.StockRecord{}, fmt.Errorf("%w: stock %d: %w", ErrFetchFailed, productID, ErrNotFound)
	}
	return domain.StockRecord{ID: productID, Amount: amount}, nil
}

func (m *Memory) Product(ctx context.Context, productID int64) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[productID]; err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %d: %w", ErrFetchFailed, productID, err)
	}
	p, ok := m.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d: %w", ErrFetchFailed, productID, ErrNotFound)
	}
	return p, nil
}

var seedProducts = []struct {
	product domain.Product
	stock   int
}{
	{domain.Product{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg"}, 3},
	{domain.Product{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 5},
	{domain.Product{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"}, 2},
	{domain.Product{ID: 4, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 1},
	{domain.Product{ID: 5, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"}, 5},
	{domain.Product{ID: 6, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9,
		Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"}, 10},
}
