// Package catalog serves the fixed plant catalog bundled with the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/plantshop/internal/cart"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("product is out of stock")
)

//go:embed plants.json
var plantsJSON []byte

type Plant struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	InStock     bool   `json:"inStock"`
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	plants     []Plant
	byID       map[int64]int
	categories []string
}

// Load returns the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(plantsJSON)
}

// Parse builds a catalog from a JSON array of plants. IDs must be unique.
func Parse(data []byte) (*Catalog, error) {
	var plants []Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(plants)
}

func New(plants []Plant) (*Catalog, error) {
	c := &Catalog{
		plants: append([]Plant(nil), plants...),
		byID:   make(map[int64]int, len(plants)),
	}
	seen := make(map[string]bool)
	for i, p := range c.plants {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plant id %d", p.ID)
		}
		c.byID[p.ID] = i
		if !seen[p.Category] {
			seen[p.Category] = true
			c.categories = append(c.categories, p.Category)
		}
	}
	return c, nil
}

func (c *Catalog) All() []Plant {
	return append([]Plant(nil), c.plants...)
}

func (c *Catalog) Get(id int64) (Plant, error) {
	i, ok := c.byID[id]
	if !ok {
		return Plant{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return c.plants[i], nil
}

// Categories lists categories in order of first appearance.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// ByCategory filters by category. An empty or unknown category returns the
// whole catalog.
func (c *Catalog) ByCategory(category string) []Plant {
	if !c.hasCategory(category) {
		return c.All()
	}
	var out []Plant
	for _, p := range c.plants {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// LineFor builds the cart payload for an in-stock product.
func (c *Catalog) LineFor(id int64) (cart.AddItem, error) {
	p, err := c.Get(id)
	if err != nil {
		return cart.AddItem{}, err
	}
	if !p.InStock {
		return cart.AddItem{}, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}
	return cart.AddItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.Image,
	}, nil
}

func (c *Catalog) hasCategory(category string) bool {
	for _, known := range c.categories {
		if known == category {
			return true
		}
	}
	return false
}
