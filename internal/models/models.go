package models

import (
	"github.com/shopspring/decimal"
)

// EncodeMoneyAsNumbers makes every decimal marshal as a bare JSON number, the
// form the store API speaks. It flips a process-wide decimal setting, so only
// main packages and test setup call it.
func EncodeMoneyAsNumbers() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ImportSummary describes the catalog after a bulk import.
type ImportSummary struct {
	TotalItems      int             `json:"total_items"`
	TotalCategories int             `json:"total_categories"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

type Category struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Name        string `json:"nombre" gorm:"column:nombre;not null"`
	Description string `json:"descripcion,omitempty" gorm:"column:descripcion"`
}

func (Category) TableName() string { return "categorias" }

type Product struct {
	ID           int             `json:"id" gorm:"primaryKey"`
	Name         string          `json:"nombre" gorm:"column:nombre;not null"`
	Description  string          `json:"descripcion" gorm:"column:descripcion"`
	Price        decimal.Decimal `json:"precio" gorm:"column:precio;type:numeric(12,2);not null"`
	Stock        int             `json:"stock" gorm:"column:stock;not null"`
	CategoryID   int             `json:"categoria_id" gorm:"column:categoria_id"`
	CategoryName string          `json:"categoria_nombre,omitempty" gorm:"column:categoria_nombre;->;-:migration"`
	ImageURL     *string         `json:"imagen_url,omitempty" gorm:"column:imagen_url"`
}

func (Product) TableName() string { return "productos" }

// ProductInput carries a create or a partial update. Nil fields are left untouched on update.
type ProductInput struct {
	Name        *string          `json:"nombre,omitempty"`
	Description *string          `json:"descripcion,omitempty"`
	Price       *decimal.Decimal `json:"precio,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	CategoryID  *int             `json:"categoria_id,omitempty"`
	ImageURL    *string          `json:"imagen_url,omitempty"`
}

// Empty reports whether no field is set.
func (in ProductInput) Empty() bool {
	return in.Name == nil && in.Description == nil && in.Price == nil &&
		in.Stock == nil && in.CategoryID == nil && in.ImageURL == nil
}

type Client struct {
	ID      int    `json:"id" gorm:"primaryKey"`
	Name    string `json:"nombre" gorm:"column:nombre;not null"`
	Email   string `json:"email" gorm:"column:email;not null;uniqueIndex"`
	Phone   string `json:"telefono" gorm:"column:telefono"`
	Address string `json:"direccion" gorm:"column:direccion"`
}

func (Client) TableName() string { return "clientes" }

type ClientInput struct {
	Name    *string `json:"nombre,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"telefono,omitempty"`
	Address *string `json:"direccion,omitempty"`
}

func (in ClientInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil && in.Address == nil
}

// OrderStatus is an open set; the backend may report values not listed here.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pendiente"
	StatusInProcess OrderStatus = "En Proceso"
	StatusCompleted OrderStatus = "Completado"
	DefaultStatus               = StatusPending
)

type Order struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	ClientID    int             `json:"cliente_id" gorm:"column:cliente_id;not null"`
	ClientName  string          `json:"cliente_nombre,omitempty" gorm:"column:cliente_nombre;->;-:migration"`
	ClientEmail string          `json:"cliente_email,omitempty" gorm:"column:cliente_email;->;-:migration"`
	CreatedAt   Timestamp       `json:"fecha" gorm:"column:fecha;type:timestamp;not null"`
	Total       decimal.Decimal `json:"total" gorm:"column:total;type:numeric(12,2);not null"`
	Status      OrderStatus     `json:"estado" gorm:"column:estado;default:Pendiente"`
	Items       []OrderItem     `json:"detalles,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "pedidos" }

// OrderItem is one persisted detail line of an order.
type OrderItem struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	OrderID     int             `json:"pedido_id" gorm:"column:pedido_id;not null"`
	ProductID   int             `json:"producto_id" gorm:"column:producto_id;not null"`
	ProductName string          `json:"producto_nombre,omitempty" gorm:"column:producto_nombre;->;-:migration"`
	Quantity    int             `json:"cantidad" gorm:"column:cantidad;not null"`
	UnitPrice   decimal.Decimal `json:"precio_unitario" gorm:"column:precio_unitario;type:numeric(12,2);not null"`
}

func (OrderItem) TableName() string { return "detalle_pedido" }

// OrderLine is the minimal projection of a cart line sent to the backend.
type OrderLine struct {
	ProductID int `json:"producto_id"`
	Quantity  int `json:"cantidad"`
}

type CreateOrderRequest struct {
	ClientID int         `json:"cliente_id"`
	Lines    []OrderLine `json:"productos"`
}

// Message is the acknowledgement body of delete endpoints.
type Message struct {
	Message string `json:"message"`
}

// ErrorBody is what the backend writes on any non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}
