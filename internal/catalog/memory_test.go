package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/rocketcart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_StockAndProduct(t *testing.T) {
	mem := NewMemory()
	mem.SetStock(1, 5)
	mem.SetProduct(domain.Product{ID: 1, Title: "Shoe"})

	stock, err := mem.Stock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Amount)

	product, err := mem.Product(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Shoe", product.Title)
}

func TestMemory_Missing(t *testing.T) {
	mem := NewMemory()

	_, err := mem.Stock(context.Background(), 7)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = mem.Product(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Fail(t *testing.T) {
	mem := NewSeededMemory()
	boom := errors.New("connection reset")

	mem.Fail(1, boom)
	_, err := mem.Stock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, boom)

	mem.Fail(1, nil)
	_, err = mem.Stock(context.Background(), 1)
	assert.NoError(t, err)
}

func TestMemory_CancelledContext(t *testing.T) {
	mem := NewSeededMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mem.Product(ctx, 1)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSeededMemory(t *testing.T) {
	mem := NewSeededMemory()

	for id := int64(1); id <= 6; id++ {
		_, err := mem.Product(context.Background(), id)
		require.NoError(t, err, "product %d", id)
		_, err = mem.Stock(context.Background(), id)
		require.NoError(t, err, "stock %d", id)
	}
}
