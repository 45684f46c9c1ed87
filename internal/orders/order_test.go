package orders

import (
	"time"

	"github.com/google/uuid"
)

func newTestOrder(username string) *Order {
	return &Order{
		ID:       uuid.New(),
		Username: username,
		Items: []Item{
			{ProductID: 1, Name: "Monstera Deliciosa", Quantity: 2, UnitPrice: 2500},
		},
		Customer: Customer{
			FirstName: "Sita",
			LastName:  "Sharma",
			Email:     "sita@example.com",
			Phone:     "9800000000",
			Address:   "Jhamsikhel",
			City:      "Lalitpur",
			State:     "Bagmati",
			Zip:       "44700",
		},
		Subtotal:  5000,
		Tax:       650,
		Shipping:  0,
		Total:     5650,
		Currency:  "NRS",
		Status:    StatusConfirmed,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}
