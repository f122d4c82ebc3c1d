package domain

// StockRecord is the purchasable ceiling reported by the stock service.
type StockRecord struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// Product is the catalog display data for a product id.
type Product struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// NewLineItem builds a fresh line item with amount 1.
func NewLineItem(p Product) LineItem {
	return LineItem{
		ID:     p.ID,
		Amount: 1,
		Image:  p.Image,
		Price:  p.Price,
		Title:  p.Title,
	}
}
