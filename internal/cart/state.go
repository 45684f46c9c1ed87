// Package cart holds the shopping cart state container: a pure reducer over
// cart commands, mirrored into durable storage after every command.
package cart

// LineItem is one product in the cart. Name, image and price are copied when the
// item is added and never re-read from the catalog.
type LineItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"` // minor currency units
	ImageRef  string `json:"image"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is UnitPrice * Quantity.
func (l LineItem) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// State is the whole cart. ItemCount and Total are derived from Items and are
// recomputed after every command.
type State struct {
	Items     []LineItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Total     int64      `json:"total"`
}

// Empty reports whether the cart has no lines.
func (s State) Empty() bool {
	return len(s.Items) == 0
}

// Find returns the line for productID.
func (s State) Find(productID int64) (LineItem, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

func (s State) index(productID int64) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// clone deep-copies the items so callers never share the store's backing array.
func (s State) clone() State {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

func (s State) recompute() State {
	s.ItemCount = 0
	s.Total = 0
	for _, item := range s.Items {
		s.ItemCount += item.Quantity
		s.Total += item.Subtotal()
	}
	return s
}
