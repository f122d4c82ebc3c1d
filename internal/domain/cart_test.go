package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_Index(t *testing.T) {
	c := Cart{{ID: 1, Amount: 2}, {ID: 7, Amount: 1}}

	assert.Equal(t, 0, c.Index(1))
	assert.Equal(t, 1, c.Index(7))
	assert.Equal(t, -1, c.Index(3))

	item, ok := c.Find(7)
	assert.True(t, ok)
	assert.Equal(t, 1, item.Amount)

	_, ok = c.Find(3)
	assert.False(t, ok)
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := Cart{{ID: 1, Amount: 2}}
	cp := c.Clone()
	cp[0].Amount = 9

	assert.Equal(t, 2, c[0].Amount)
	assert.NotNil(t, Cart(nil).Clone())
}

func TestCart_Totals(t *testing.T) {
	c := Cart{
		{ID: 1, Amount: 3, Price: 0.1},
		{ID: 2, Amount: 2, Price: 179.9},
	}

	assert.Equal(t, 5, c.Count())
	assert.Equal(t, "360.1", c.Subtotal().String())
	assert.True(t, Cart{}.Subtotal().IsZero())
}

func TestCart_SnapshotFormat(t *testing.T) {
	c := Cart{{ID: 1, Amount: 1, Title: "Shoe", Price: 100, Image: "x.png"}}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"amount":1,"image":"x.png","price":100,"title":"Shoe"}]`, string(data))
}

func TestNewLineItem(t *testing.T) {
	item := NewLineItem(Product{ID: 4, Title: "Tenis", Price: 139.9, Image: "t.jpg"})
	assert.Equal(t, LineItem{ID: 4, Amount: 1, Image: "t.jpg", Price: 139.9, Title: "Tenis"}, item)
}
