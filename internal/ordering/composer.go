// Package ordering turns the cart and a chosen client into an order request
// and settles the cart once the backend has answered.
package ordering

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/cart"
	"github.com/drstein77/fitstore/internal/models"
)

// Collection names a backend collection the console keeps a copy of.
type Collection string

const (
	Products   Collection = "productos"
	Categories Collection = "categorias"
	Clients    Collection = "clientes"
	Orders     Collection = "pedidos"
)

var (
	ErrEmptyCart = newValidationError("el carrito está vacío")
	ErrNoClient  = newValidationError("seleccione un cliente")
)

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation reports whether err blocked the submission before any request.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// Creator is the network side of order creation.
type Creator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
}

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Outcome is what a successful submission leaves behind.
type Outcome struct {
	Order models.Order
	// Refresh lists the collections that changed on the backend.
	Refresh []Collection
}

type Composer struct {
	creator Creator
	log     Log
}

func NewComposer(creator Creator, log Log) *Composer {
	return &Composer{creator: creator, log: log}
}

// Compose validates the cart and the client and projects every line to
// {producto_id, cantidad}. Prices stay behind: the backend prices the order.
func Compose(lines []cart.Line, clientID int) (models.CreateOrderRequest, error) {
	if len(lines) == 0 {
		return models.CreateOrderRequest{}, ErrEmptyCart
	}
	if clientID <= 0 {
		return models.CreateOrderRequest{}, ErrNoClient
	}

	req := models.CreateOrderRequest{
		ClientID: clientID,
		Lines:    make([]models.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, models.OrderLine{ProductID: l.ID, Quantity: l.Quantity})
	}
	return req, nil
}

// Send issues the create-order request once. There is no retry.
func (c *Composer) Send(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	order, err := c.creator.CreateOrder(ctx, req)
	if err != nil {
		c.log.Error("order submission failed",
			zap.Int("client_id", req.ClientID), zap.Int("lines", len(req.Lines)), zap.Error(err))
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}

	c.log.Info("order created",
		zap.Int("order_id", order.ID), zap.Int("client_id", req.ClientID), zap.String("total", order.Total.String()))
	return order, nil
}

// Settle clears the cart after a confirmed success and names what must be
// fetched again, since the backend has decremented stock.
func Settle(store *cart.Store, order models.Order) Outcome {
	store.Clear()
	return Outcome{Order: order, Refresh: []Collection{Orders, Products}}
}

// Submit runs the whole workflow: validate, send, settle. On any error the
// cart is left as it was.
func (c *Composer) Submit(ctx context.Context, store *cart.Store, clientID int) (Outcome, error) {
	req, err := Compose(store.Lines(), clientID)
	if err != nil {
		return Outcome{}, err
	}

	order, err := c.Send(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	return Settle(store, order), nil
}
