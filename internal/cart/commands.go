package cart

// Command is a cart mutation. The set is closed: AddItem, UpdateQuantity,
// RemoveItem and ClearCart.
type Command interface {
	Type() string
	apply(State) State
}

// AddItem increments the line for ProductID, or appends a new line with quantity 1.
type AddItem struct {
	ProductID int64
	Name      string
	UnitPrice int64
	ImageRef  string
}

func (AddItem) Type() string { return "ADD_ITEM" }

func (c AddItem) apply(s State) State {
	if i := s.index(c.ProductID); i >= 0 {
		s.Items[i].Quantity++
		return s
	}
	s.Items = append(s.Items, LineItem{
		ProductID: c.ProductID,
		Name:      c.Name,
		UnitPrice: c.UnitPrice,
		ImageRef:  c.ImageRef,
		Quantity:  1,
	})
	return s
}

// UpdateQuantity sets the quantity of an existing line. A quantity below 1
// removes the line so that no line ever holds a non-positive quantity.
// Unknown products are ignored.
type UpdateQuantity struct {
	ProductID int64
	Quantity  int
}

func (UpdateQuantity) Type() string { return "UPDATE_QUANTITY" }

func (c UpdateQuantity) apply(s State) State {
	if c.Quantity <= 0 {
		return RemoveItem{ProductID: c.ProductID}.apply(s)
	}
	if i := s.index(c.ProductID); i >= 0 {
		s.Items[i].Quantity = c.Quantity
	}
	return s
}

// RemoveItem deletes the line for ProductID if present.
type RemoveItem struct {
	ProductID int64
}

func (RemoveItem) Type() string { return "REMOVE_ITEM" }

func (c RemoveItem) apply(s State) State {
	i := s.index(c.ProductID)
	if i < 0 {
		return s
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return s
}

// ClearCart empties the cart.
type ClearCart struct{}

func (ClearCart) Type() string { return "CLEAR_CART" }

func (ClearCart) apply(s State) State {
	s.Items = []LineItem{}
	return s
}

// Reduce returns the state after cmd. s is not modified.
func Reduce(s State, cmd Command) State {
	return cmd.apply(s.clone()).recompute()
}
