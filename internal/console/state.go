package console

import (
	"github.com/drstein77/fitstore/internal/cart"
	"github.com/drstein77/fitstore/internal/catalog"
	"github.com/drstein77/fitstore/internal/dashboard"
	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/ordering"
)

type View string

const (
	ViewDashboard View = "dashboard"
	ViewProducts  View = "products"
	ViewCart      View = "cart"
	ViewClients   View = "clients"
	ViewOrders    View = "orders"
)

func ParseView(v string) (View, bool) {
	switch View(v) {
	case ViewDashboard, ViewProducts, ViewCart, ViewClients, ViewOrders:
		return View(v), true
	}
	return "", false
}

// State is everything the console shows. Collections stay nil until their
// first successful fetch.
type State struct {
	View       View
	Criteria   catalog.Criteria
	Cart       *cart.Store
	Products   []models.Product
	Categories []models.Category
	Clients    []models.Client
	Orders     []models.Order

	// Submitting is true between sending an order and hearing back; the
	// cart is frozen meanwhile.
	Submitting bool
	LastOrder  *models.Order

	generations map[ordering.Collection]uint64
}

func NewState() *State {
	return &State{
		View:        ViewDashboard,
		Criteria:    catalog.Criteria{Category: catalog.All},
		Cart:        cart.New(),
		generations: make(map[ordering.Collection]uint64),
	}
}

func (s *State) VisibleProducts() []models.Product {
	return catalog.Filter(s.Products, s.Criteria)
}

func (s *State) Summary() dashboard.Summary {
	return dashboard.Aggregate(s.Products, s.Orders, s.Clients)
}

func (s *State) product(id int) (models.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *State) client(id int) (models.Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

// CategoryName resolves a category id against the loaded categories.
func (s *State) CategoryName(id int) string {
	for _, c := range s.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// Loaded reports whether c has been fetched at least once.
func (s *State) Loaded(c ordering.Collection) bool {
	switch c {
	case ordering.Products:
		return s.Products != nil
	case ordering.Categories:
		return s.Categories != nil
	case ordering.Clients:
		return s.Clients != nil
	case ordering.Orders:
		return s.Orders != nil
	}
	return false
}
