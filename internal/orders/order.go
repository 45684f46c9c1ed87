// Package orders records placed orders and announces them to other systems.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
)

type Status string

const StatusConfirmed Status = "CONFIRMED"

// Guest is recorded as the username when nobody is logged in.
const Guest = "guest"

type Item struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"product_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`
}

// Customer is the delivery part of the checkout form. Card details are never stored.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

type Order struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Items     []Item    `json:"items"`
	Customer  Customer  `json:"customer"`
	Subtotal  int64     `json:"subtotal"`
	Tax       int64     `json:"tax"`
	Shipping  int64     `json:"shipping"`
	Total     int64     `json:"total"`
	Currency  string    `json:"currency"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, username string) ([]*Order, error)
	Close() error
}
