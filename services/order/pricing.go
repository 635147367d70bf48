package order

// CartItem is a client-submitted cart line. Price is re-read from the catalog
// at checkout; the submitted price is never trusted.
type CartItem struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gte=1"`
}

// Subtotal sums price times quantity over resolved order lines.
func Subtotal(items []OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// Total applies a discount to a subtotal. The validator clamps the discount
// to the subtotal, so this never goes negative; the floor is belt and braces.
func Total(subtotal, discount float64) float64 {
	t := subtotal - discount
	if t < 0 {
		t = 0
	}
	return t
}
