package gormkeeper

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/storage"
)

func newSeeded(t *testing.T) *GormKeeper {
	t.Helper()
	kp, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared", logger.Nop())
	require.NoError(t, err)
	sqlDB, err := kp.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { kp.Close() })

	require.NoError(t, kp.Seed(context.Background()))
	return kp
}

func ptr[T any](v T) *T { return &v }

func TestSeedIsIdempotent(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()
	require.NoError(t, kp.Seed(ctx))

	categories, err := kp.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)

	products, err := kp.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 12)
	assert.Equal(t, "Whey Protein Isolate", products[0].Name)
	assert.Equal(t, "Proteínas", products[0].CategoryName)
	assert.True(t, decimal.NewFromInt(4500).Equal(products[0].Price))

	clients, err := kp.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 12)

	orders, err := kp.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 10)
	assert.Equal(t, "Valentina Castro", orders[0].ClientName)
	assert.Equal(t, models.StatusCompleted, orders[0].Status)
}

func TestGetOrderIncludesLines(t *testing.T) {
	kp := newSeeded(t)

	order, err := kp.GetOrder(context.Background(), 6)

	require.NoError(t, err)
	assert.Equal(t, "Laura Sánchez", order.ClientName)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Glutamina Pure", order.Items[1].ProductName)
	assert.Equal(t, 2, order.Items[1].Quantity)

	_, err = kp.GetOrder(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateOrderPricesAndReservesStock(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()
	at := time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)

	order, err := kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: 1,
		Lines:    []models.OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 5, Quantity: 1}},
	}, at)

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "10500.00", order.Total.StringFixed(2))
	assert.True(t, order.CreatedAt.Equal(at))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "4500.00", order.Items[0].UnitPrice.StringFixed(2))

	p, err := kp.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 48, p.Stock)

	orders, err := kp.ListOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCreateOrderIsAllOrNothing(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()

	_, err := kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: 1,
		Lines:    []models.OrderLine{{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 41}},
	}, time.Now())
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)

	p, err := kp.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Stock)

	_, err = kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: 1, Lines: []models.OrderLine{{ProductID: 77, Quantity: 1}},
	}, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: 500, Lines: []models.OrderLine{{ProductID: 1, Quantity: 1}},
	}, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	orders, err := kp.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 10)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()

	require.NoError(t, kp.DeleteOrder(ctx, 10))

	p, err := kp.GetProduct(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 47, p.Stock)

	_, err = kp.GetOrder(ctx, 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, kp.DeleteOrder(ctx, 10), storage.ErrNotFound)
}

func TestProductLifecycle(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()

	created, err := kp.CreateProduct(ctx, models.ProductInput{
		Name: ptr("Electrolitos"), Description: ptr("Sales minerales"),
		Price: ptr(decimal.RequireFromString("950.50")), Stock: ptr(30), CategoryID: ptr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Vitaminas", created.CategoryName)
	assert.Nil(t, created.ImageURL)

	updated, err := kp.UpdateProduct(ctx, created.ID, models.ProductInput{Stock: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "Electrolitos", updated.Name)

	_, err = kp.UpdateProduct(ctx, 404, models.ProductInput{Stock: ptr(1)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, kp.DeleteProduct(ctx, 1), storage.ErrConflict)
	require.NoError(t, kp.DeleteProduct(ctx, created.ID))
	assert.ErrorIs(t, kp.DeleteProduct(ctx, created.ID), storage.ErrNotFound)
}

func TestClientLifecycle(t *testing.T) {
	kp := newSeeded(t)
	ctx := context.Background()

	c, err := kp.CreateClient(ctx, models.ClientInput{
		Name: ptr("Paula Gómez"), Email: ptr("paula@email.com"), Phone: ptr(""), Address: ptr(""),
	})
	require.NoError(t, err)

	_, err = kp.CreateClient(ctx, models.ClientInput{Name: ptr("Otro"), Email: ptr("paula@email.com")})
	assert.ErrorIs(t, err, storage.ErrConflict)

	c, err = kp.UpdateClient(ctx, c.ID, models.ClientInput{Phone: ptr("381-5550000")})
	require.NoError(t, err)
	assert.Equal(t, "381-5550000", c.Phone)
	assert.Equal(t, "paula@email.com", c.Email)

	assert.ErrorIs(t, kp.DeleteClient(ctx, 1), storage.ErrConflict)
	require.NoError(t, kp.DeleteClient(ctx, c.ID))
	_, err = kp.GetClient(ctx, c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsertProductsReportsCatalog(t *testing.T) {
	kp := newSeeded(t)

	summary, err := kp.InsertProducts(context.Background(), []models.ProductInput{
		{Name: ptr("A"), Price: ptr(decimal.NewFromInt(100)), Stock: ptr(1), CategoryID: ptr(1)},
		{Name: ptr("B"), Price: ptr(decimal.NewFromInt(200)), Stock: ptr(1), CategoryID: ptr(6)},
	})

	require.NoError(t, err)
	assert.Equal(t, 14, summary.TotalItems)
	assert.Equal(t, 6, summary.TotalCategories)
	assert.Equal(t, "30200.00", summary.TotalPrice.StringFixed(2))
}
