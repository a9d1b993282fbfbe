package cart

import (
	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/types"
)

// Line is one product in the cart. Product is the snapshot taken when the
// product was added.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// ProductID returns the id the line is keyed by.
func (l Line) ProductID() types.ID {
	return l.Product.ID
}

// Cart is an ordered collection of lines with unique product ids. Order is
// insertion order. The zero value is an empty cart.
type Cart struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) index(productID types.ID) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line for productID.
func (c *Cart) Find(productID types.ID) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Add increments the quantity of an existing line or appends a new line with
// quantity 1. The product snapshot of an existing line is refreshed.
func (c *Cart) Add(product catalog.Product) {
	if i := c.index(product.ID); i >= 0 {
		c.Lines[i].Product = product
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, Line{Product: product, Quantity: 1})
}

// Remove deletes the line; absent ids are a no-op.
func (c *Cart) Remove(productID types.ID) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// UpdateQuantity sets a line's quantity. A quantity ≤ 0 removes the line and
// absent ids are a no-op.
func (c *Cart) UpdateQuantity(productID types.ID, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.Lines[i].Quantity = quantity
	}
}

// Refresh replaces the product snapshot of an existing line.
func (c *Cart) Refresh(product catalog.Product) {
	if i := c.index(product.ID); i >= 0 {
		c.Lines[i].Product = product
	}
}

// Subtract lowers each matching line by the given quantity and drops lines
// that reach zero. Ids not in the cart are skipped.
func (c *Cart) Subtract(lines []Line) {
	for _, l := range lines {
		i := c.index(l.ProductID())
		if i < 0 {
			continue
		}
		if left := c.Lines[i].Quantity - l.Quantity; left > 0 {
			c.Lines[i].Quantity = left
			continue
		}
		c.Remove(l.ProductID())
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.Lines)
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Snapshot returns a copy whose line slice does not alias the receiver.
func (c *Cart) Snapshot() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}
