package dbkeeper

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/storage"
)

// newPostgresKeeper connects to DATABASE_URI and migrates it; without it the test is skipped.
func newPostgresKeeper(t *testing.T) *DBKeeper {
	t.Helper()
	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		t.Skip("DATABASE_URI is not set")
	}
	require.NoError(t, Migrate(dsn, "", logger.Nop()))

	kp := NewDBKeeper(context.Background(), func() string { return dsn }, logger.Nop())
	require.NotNil(t, kp)
	t.Cleanup(func() { kp.Close() })
	return kp
}

func ptr[T any](v T) *T { return &v }

// fixture creates a throwaway client and product and removes them afterwards.
func fixture(t *testing.T, kp *DBKeeper, stock int) (models.Client, models.Product) {
	t.Helper()
	ctx := context.Background()

	c, err := kp.CreateClient(ctx, models.ClientInput{
		Name: ptr("Prueba"), Email: ptr(uuid.NewString() + "@test.local"), Phone: ptr(""), Address: ptr(""),
	})
	require.NoError(t, err)

	p, err := kp.CreateProduct(ctx, models.ProductInput{
		Name: ptr("Electrolitos " + uuid.NewString()[:8]), Description: ptr("Sales"),
		Price: ptr(decimal.RequireFromString("1250.50")), Stock: ptr(stock), CategoryID: ptr(3),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		kp.DeleteProduct(ctx, p.ID)
		kp.DeleteClient(ctx, c.ID)
	})
	return c, p
}

func TestPostgresOrderLifecycle(t *testing.T) {
	kp := newPostgresKeeper(t)
	ctx := context.Background()
	c, p := fixture(t, kp, 10)
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	order, err := kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: c.ID, Lines: []models.OrderLine{{ProductID: p.ID, Quantity: 3}},
	}, at)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "3751.50", order.Total.StringFixed(2))
	assert.True(t, order.CreatedAt.Equal(at), "got %s", order.CreatedAt)
	assert.Equal(t, c.Email, order.ClientEmail)
	require.Len(t, order.Items, 1)
	assert.Equal(t, p.Name, order.Items[0].ProductName)
	assert.Equal(t, "1250.50", order.Items[0].UnitPrice.StringFixed(2))

	got, err := kp.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	orders, err := kp.ListOrders(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	assert.Equal(t, order.ID, orders[0].ID)

	require.NoError(t, kp.DeleteOrder(ctx, order.ID))
	got, err = kp.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.ErrorIs(t, kp.DeleteOrder(ctx, order.ID), storage.ErrNotFound)
}

func TestPostgresOrderIsAllOrNothing(t *testing.T) {
	kp := newPostgresKeeper(t)
	ctx := context.Background()
	c, p := fixture(t, kp, 2)

	_, err := kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: c.ID, Lines: []models.OrderLine{{ProductID: p.ID, Quantity: 3}},
	}, time.Now())
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)

	_, err = kp.CreateOrder(ctx, models.CreateOrderRequest{
		ClientID: c.ID, Lines: []models.OrderLine{{ProductID: p.ID, Quantity: 1}, {ProductID: -1, Quantity: 1}},
	}, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := kp.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestPostgresPartialUpdates(t *testing.T) {
	kp := newPostgresKeeper(t)
	ctx := context.Background()
	c, p := fixture(t, kp, 5)

	updated, err := kp.UpdateProduct(ctx, p.ID, models.ProductInput{Stock: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, p.Name, updated.Name)
	assert.Equal(t, "1250.50", updated.Price.StringFixed(2))
	assert.Equal(t, "Vitaminas", updated.CategoryName)

	client, err := kp.UpdateClient(ctx, c.ID, models.ClientInput{Phone: ptr("381-5550000")})
	require.NoError(t, err)
	assert.Equal(t, "381-5550000", client.Phone)
	assert.Equal(t, c.Email, client.Email)

	_, err = kp.CreateClient(ctx, models.ClientInput{Name: ptr("Otro"), Email: ptr(c.Email)})
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = kp.UpdateProduct(ctx, -1, models.ProductInput{Stock: ptr(1)})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgresSeedIsReadable(t *testing.T) {
	kp := newPostgresKeeper(t)
	ctx := context.Background()

	categories, err := kp.ListCategories(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(categories), 5)

	order, err := kp.GetOrder(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-06 13:30:00", order.CreatedAt.String())
	assert.Len(t, order.Items, 2)
}
