// Package cart holds the session-local shopping cart.
//
// A Store keeps at most one Line per product id, in the order the products
// were first added. It lives in memory only and is not safe for concurrent
// use: the console mutates it from a single goroutine.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/drstein77/fitstore/internal/models"
)

// Line is a product snapshot plus the quantity the user wants.
type Line struct {
	models.Product
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Store struct {
	lines []Line
	index map[int]int
}

func New() *Store {
	return &Store{index: make(map[int]int)}
}

// Add puts one more unit of p in the cart. Stock is not checked here.
func (s *Store) Add(p models.Product) {
	if i, ok := s.index[p.ID]; ok {
		s.lines[i].Quantity++
		return
	}
	s.index[p.ID] = len(s.lines)
	s.lines = append(s.lines, Line{Product: p, Quantity: 1})
}

// SetQuantity sets the quantity of a line exactly. A quantity of zero or less
// removes the line; a missing line is ignored.
func (s *Store) SetQuantity(productID, quantity int) {
	i, ok := s.index[productID]
	if !ok {
		return
	}
	if quantity > 0 {
		s.lines[i].Quantity = quantity
		return
	}

	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].ID] = j
	}
}

// Total is recomputed on every call.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) Clear() {
	s.lines = nil
	s.index = make(map[int]int)
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns the line for productID, if present.
func (s *Store) Line(productID int) (Line, bool) {
	i, ok := s.index[productID]
	if !ok {
		return Line{}, false
	}
	return s.lines[i], true
}

func (s *Store) Len() int { return len(s.lines) }

func (s *Store) Empty() bool { return len(s.lines) == 0 }

// Units is the sum of quantities across lines.
func (s *Store) Units() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}
