// Package catalog derives the visible product list from a category selection
// and a search text.
package catalog

import (
	"strconv"
	"strings"

	"github.com/drstein77/fitstore/internal/models"
)

// Selection is either All or a specific category id.
type Selection struct {
	categoryID int
	all        bool
}

// All matches every category.
var All = Selection{all: true}

func Category(id int) Selection {
	return Selection{categoryID: id}
}

func (s Selection) IsAll() bool { return s.all }

// CategoryID is meaningful only when IsAll is false.
func (s Selection) CategoryID() int { return s.categoryID }

func (s Selection) String() string {
	if s.all {
		return "all"
	}
	return strconv.Itoa(s.categoryID)
}

// ParseSelection accepts "all", "todas", the empty string or a category id.
func ParseSelection(v string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all", "todas":
		return All, nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return Selection{}, err
	}
	return Category(id), nil
}

// Criteria is what the user picked in the catalog view.
type Criteria struct {
	Category Selection
	Search   string
}

func (c Criteria) Match(p models.Product) bool {
	if !c.Category.IsAll() && p.CategoryID != c.Category.CategoryID() {
		return false
	}
	if c.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(c.Search))
}

// Filter returns the products matching c, keeping their relative order.
func Filter(products []models.Product, c Criteria) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
