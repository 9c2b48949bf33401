package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/drstein77/fitstore/internal/dashboard"
	"github.com/drstein77/fitstore/internal/ordering"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render writes the current view.
func Render(w io.Writer, s *State) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch s.View {
	case ViewProducts:
		renderProducts(tw, s)
	case ViewCart:
		renderCart(tw, s)
	case ViewClients:
		renderClients(tw, s)
	case ViewOrders:
		renderOrders(tw, s)
	default:
		renderDashboard(tw, s)
	}
	return tw.Flush()
}

func renderDashboard(w io.Writer, s *State) {
	sum := s.Summary()
	fmt.Fprintf(w, "Ventas totales\t%s\n", money(sum.TotalSales))
	fmt.Fprintf(w, "Pedidos\t%d\n", sum.OrderCount)
	fmt.Fprintf(w, "Productos\t%d\n", sum.ProductCount)
	fmt.Fprintf(w, "Clientes\t%d\n", sum.ClientCount)

	fmt.Fprintln(w, "\nProductos destacados")
	for i, p := range sum.TopProducts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Name, p.CategoryName, money(p.Price))
	}

	fmt.Fprintln(w, "\nAlertas de stock")
	switch sum.StockState {
	case dashboard.StockUnknown:
		fmt.Fprintln(w, "cargando...")
	case dashboard.StockHealthy:
		fmt.Fprintln(w, "todos los productos tienen stock suficiente")
	default:
		for _, a := range sum.LowStock {
			fmt.Fprintf(w, "[%s]\t%s\t%d unidades\n", a.Severity, a.Product.Name, a.Product.Stock)
		}
	}

	fmt.Fprintln(w, "\nPedidos recientes")
	for _, o := range sum.RecentOrders {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%s\n", o.ID, o.ClientName, money(o.Total), o.Status)
	}
}

func renderProducts(w io.Writer, s *State) {
	if !s.Loaded(ordering.Products) {
		fmt.Fprintln(w, "cargando...")
		return
	}
	fmt.Fprintf(w, "categoría: %s\tbúsqueda: %q\n", s.Criteria.Category, s.Criteria.Search)
	fmt.Fprintln(w, "ID\tNombre\tCategoría\tPrecio\tStock")
	for _, p := range s.VisibleProducts() {
		stock := fmt.Sprint(p.Stock)
		if p.Stock == 0 {
			stock = "sin stock"
		}
		category := p.CategoryName
		if category == "" {
			category = s.CategoryName(p.CategoryID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, category, money(p.Price), stock)
	}
}

func renderCart(w io.Writer, s *State) {
	if s.Cart.Empty() {
		fmt.Fprintln(w, "el carrito está vacío")
		return
	}
	fmt.Fprintln(w, "ID\tProducto\tPrecio\tCantidad\tSubtotal")
	for _, l := range s.Cart.Lines() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ID, l.Name, money(l.Price), l.Quantity, money(l.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t\tTotal\t%s\n", money(s.Cart.Total()))
	if s.Submitting {
		fmt.Fprintln(w, "enviando pedido...")
	}
}

func renderClients(w io.Writer, s *State) {
	if !s.Loaded(ordering.Clients) {
		fmt.Fprintln(w, "cargando...")
		return
	}
	fmt.Fprintln(w, "ID\tNombre\tEmail\tTeléfono\tDirección")
	for _, c := range s.Clients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Address)
	}
}

func renderOrders(w io.Writer, s *State) {
	if !s.Loaded(ordering.Orders) {
		fmt.Fprintln(w, "cargando...")
		return
	}
	fmt.Fprintln(w, "ID\tCliente\tFecha\tTotal\tEstado")
	for _, o := range s.Orders {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", o.ID, o.ClientName, o.CreatedAt, money(o.Total), o.Status)
	}
}
