package models

import (
	"fmt"
	"strings"
)

// CartLine is one item in a cart. Free lines are only created by
// free-item coupons and always carry a zero price.
type CartLine struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Free     bool   `json:"free,omitempty"`
}

// Total returns price times quantity.
func (l CartLine) Total() int {
	return l.Price * l.Quantity
}

// Cart is an ordered list of lines, unique by item name among paid lines
// and among free lines. Cart values are never mutated in place: every
// operation returns an updated copy.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) clone() Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

func (c Cart) indexOf(name string, free bool) int {
	for i, line := range c.Lines {
		if line.Name == name && line.Free == free {
			return i
		}
	}
	return -1
}

// AddItem prices name through the catalog and merges it into the cart.
func (c Cart) AddItem(catalog Catalog, name string, qty int) (Cart, error) {
	if qty < 1 {
		return c, ValidationError{Field: "quantity", Message: "quantity must be at least 1"}
	}

	item, err := catalog.LookupItem(name)
	if err != nil {
		return c, err
	}

	updated := c.clone()
	if i := updated.indexOf(item.Name, false); i >= 0 {
		updated.Lines[i].Quantity += qty
		return updated, nil
	}

	updated.Lines = append(updated.Lines, CartLine{
		Name:     item.Name,
		Price:    item.Price,
		Quantity: qty,
	})
	return updated, nil
}

// AddFreeItem appends a zero-priced line for name, bypassing the catalog.
func (c Cart) AddFreeItem(name string) Cart {
	updated := c.clone()
	if i := updated.indexOf(name, true); i >= 0 {
		updated.Lines[i].Quantity++
		return updated
	}
	updated.Lines = append(updated.Lines, CartLine{Name: name, Quantity: 1, Free: true})
	return updated
}

// RemoveItem drops every line named name. Absent names are a no-op.
func (c Cart) RemoveItem(name string) Cart {
	updated := Cart{Lines: make([]CartLine, 0, len(c.Lines))}
	for _, line := range c.Lines {
		if line.Name != name {
			updated.Lines = append(updated.Lines, line)
		}
	}
	return updated
}

// Subtotal is the sum of price times quantity over all lines.
func (c Cart) Subtotal() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Total()
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount is the number of units across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// Snapshot copies the lines into order items.
func (c Cart) Snapshot() []OrderItem {
	items := make([]OrderItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, OrderItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
			Free:     line.Free,
		})
	}
	return items
}

// Render formats the cart for a terminal or a plain-text receipt.
func (c Cart) Render() string {
	if c.IsEmpty() {
		return "Your cart is empty"
	}

	var b strings.Builder
	for _, line := range c.Lines {
		price := fmt.Sprintf("₹%d", line.Total())
		if line.Free {
			price = "FREE"
		}
		fmt.Fprintf(&b, "%dx %s  %s\n", line.Quantity, line.Name, price)
	}
	fmt.Fprintf(&b, "Subtotal: ₹%d", c.Subtotal())
	return b.String()
}
