package domain

// CartLine pairs a product, snapshotted when it was added, with a quantity.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartSnapshot is a point-in-time copy of a cart's lines. Version increases on
// every mutation of the cart it was taken from.
type CartSnapshot struct {
	Lines   []CartLine
	Version uint64
}

// Empty reports whether the snapshot holds no lines
func (s CartSnapshot) Empty() bool {
	return len(s.Lines) == 0
}
