package domain

import "github.com/shopspring/decimal"

// LineItem is one product in the cart. Display metadata is copied from the
// catalog when the product is first added and never refreshed.
type LineItem struct {
	ID     int64   `json:"id" bson:"id"`
	Amount int     `json:"amount" bson:"amount"`
	Image  string  `json:"image" bson:"image"`
	Price  float64 `json:"price" bson:"price"`
	Title  string  `json:"title" bson:"title"`
}

// Cart keeps insertion order and holds at most one LineItem per product id.
type Cart []LineItem

// Index returns the position of productID in the cart or -1.
func (c Cart) Index(productID int64) int {
	for i, item := range c {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Find(productID int64) (LineItem, bool) {
	i := c.Index(productID)
	if i < 0 {
		return LineItem{}, false
	}
	return c[i], true
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Count is the total number of units across all line items.
func (c Cart) Count() int {
	n := 0
	for _, item := range c {
		n += item.Amount
	}
	return n
}

// Subtotal sums price * amount without float drift.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Amount))))
	}
	return total
}
