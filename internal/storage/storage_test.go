package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/models"
)

type fakeKeeper struct {
	Keeper // unimplemented methods panic

	products []models.Product
	orders   []models.CreateOrderRequest
	inserted []models.ProductInput
	listHits int
	// duringList runs once, between reading the rows and returning them
	duringList func()
}

func (f *fakeKeeper) ListProducts(context.Context) ([]models.Product, error) {
	f.listHits++
	products := f.products
	if hook := f.duringList; hook != nil {
		f.duringList = nil
		hook()
	}
	return products, nil
}

func (f *fakeKeeper) CreateProduct(_ context.Context, in models.ProductInput) (models.Product, error) {
	p := models.Product{ID: len(f.products) + 1, Name: *in.Name, Price: *in.Price, Stock: *in.Stock}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeKeeper) InsertProducts(_ context.Context, in []models.ProductInput) (*models.ImportSummary, error) {
	f.inserted = append(f.inserted, in...)
	return &models.ImportSummary{TotalItems: len(f.inserted)}, nil
}

func (f *fakeKeeper) CreateOrder(_ context.Context, req models.CreateOrderRequest, at time.Time) (models.Order, error) {
	f.orders = append(f.orders, req)
	return models.Order{ID: len(f.orders), ClientID: req.ClientID, CreatedAt: models.NewTimestamp(at)}, nil
}

func (f *fakeKeeper) DeleteOrder(context.Context, int) error { return nil }

type memCache struct {
	products    []models.Product
	invalidated int
}

func (c *memCache) Products(context.Context) ([]models.Product, bool) {
	return c.products, c.products != nil
}
func (c *memCache) SetProducts(_ context.Context, p []models.Product) { c.products = p }
func (c *memCache) Categories(context.Context) ([]models.Category, bool) {
	return nil, false
}
func (c *memCache) SetCategories(context.Context, []models.Category) {}
func (c *memCache) Invalidate(context.Context) {
	c.products = nil
	c.invalidated++
}

func ptr[T any](v T) *T { return &v }

func TestCreateProductValidation(t *testing.T) {
	s := NewStorage(&fakeKeeper{}, nil, logger.Nop())
	ctx := context.Background()
	price := decimal.RequireFromString("10.50")

	tests := []struct {
		name string
		in   models.ProductInput
	}{
		{name: "missing name", in: models.ProductInput{Price: &price, Stock: ptr(1), CategoryID: ptr(1)}},
		{name: "blank name", in: models.ProductInput{Name: ptr("  "), Price: &price, Stock: ptr(1), CategoryID: ptr(1)}},
		{name: "missing price", in: models.ProductInput{Name: ptr("x"), Stock: ptr(1), CategoryID: ptr(1)}},
		{name: "negative price", in: models.ProductInput{Name: ptr("x"), Price: ptr(decimal.NewFromInt(-1)), Stock: ptr(1), CategoryID: ptr(1)}},
		{name: "negative stock", in: models.ProductInput{Name: ptr("x"), Price: &price, Stock: ptr(-2), CategoryID: ptr(1)}},
		{name: "missing category", in: models.ProductInput{Name: ptr("x"), Price: &price, Stock: ptr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateProduct(ctx, tt.in)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	p, err := s.CreateProduct(ctx, models.ProductInput{Name: ptr("ZMA"), Price: &price, Stock: ptr(3), CategoryID: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, "ZMA", p.Name)
}

func TestUpdateWithoutFields(t *testing.T) {
	s := NewStorage(&fakeKeeper{}, nil, logger.Nop())

	_, err := s.UpdateProduct(context.Background(), 1, models.ProductInput{})
	assert.ErrorIs(t, err, ErrNoFields)

	_, err = s.UpdateClient(context.Background(), 1, models.ClientInput{})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestCreateClientValidation(t *testing.T) {
	s := NewStorage(&fakeKeeper{}, nil, logger.Nop())

	_, err := s.CreateClient(context.Background(), models.ClientInput{Name: ptr("Ana")})
	assert.True(t, IsValidation(err))

	_, err = s.CreateClient(context.Background(), models.ClientInput{Email: ptr("a@x.com")})
	assert.True(t, IsValidation(err))
}

func TestCreateOrderMergesRepeatedProducts(t *testing.T) {
	k := &fakeKeeper{}
	s := NewStorage(k, nil, logger.Nop())
	fixed := time.Date(2025, 11, 11, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	order, err := s.CreateOrder(context.Background(), models.CreateOrderRequest{
		ClientID: 2,
		Lines: []models.OrderLine{
			{ProductID: 5, Quantity: 1},
			{ProductID: 1, Quantity: 2},
			{ProductID: 5, Quantity: 3},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, fixed, order.CreatedAt.Time)
	require.Len(t, k.orders, 1)
	assert.Equal(t, []models.OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 5, Quantity: 4}}, k.orders[0].Lines)
}

func TestCreateOrderRejectsBadRequests(t *testing.T) {
	k := &fakeKeeper{}
	s := NewStorage(k, nil, logger.Nop())
	ctx := context.Background()

	for _, req := range []models.CreateOrderRequest{
		{ClientID: 0, Lines: []models.OrderLine{{ProductID: 1, Quantity: 1}}},
		{ClientID: 1},
		{ClientID: 1, Lines: []models.OrderLine{{ProductID: 1, Quantity: 0}}},
	} {
		_, err := s.CreateOrder(ctx, req)
		assert.True(t, IsValidation(err), "%+v", req)
	}
	assert.Empty(t, k.orders)
}

func TestCacheServesReadsAndIsInvalidated(t *testing.T) {
	k := &fakeKeeper{products: []models.Product{{ID: 1}}}
	c := &memCache{}
	s := NewStorage(k, c, logger.Nop())
	ctx := context.Background()

	_, err := s.ListProducts(ctx)
	require.NoError(t, err)
	_, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, k.listHits)

	require.NoError(t, s.DeleteOrder(ctx, 1))
	assert.Equal(t, 1, c.invalidated)

	_, err = s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, k.listHits)
}

func TestImportProducts(t *testing.T) {
	k := &fakeKeeper{}
	s := NewStorage(k, nil, logger.Nop())
	data := "nombre,descripcion,precio,stock,categoria_id,imagen_url\n" +
		"Glutamina,L-Glutamina pura,1800.00,65,5,\n" +
		"BCAA,\"Aminoácidos, 300 cápsulas\",2200,80,5,https://img/bcaa.png\n"

	summary, err := s.ImportProducts(context.Background(), strings.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	require.Len(t, k.inserted, 2)
	assert.Equal(t, "Aminoácidos, 300 cápsulas", *k.inserted[1].Description)
	assert.Nil(t, k.inserted[0].ImageURL)
	require.NotNil(t, k.inserted[1].ImageURL)
}

func TestImportRejectsBadRow(t *testing.T) {
	k := &fakeKeeper{}
	s := NewStorage(k, nil, logger.Nop())

	_, err := s.ImportProducts(context.Background(), strings.NewReader("Whey,desc,abc,1,1\n"))

	require.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "line 1")
	assert.Empty(t, k.inserted)
}

func TestExportProducts(t *testing.T) {
	img := "https://img/w.png"
	k := &fakeKeeper{products: []models.Product{
		{ID: 1, Name: "Whey", Description: "90%", Price: decimal.RequireFromString("4500"), Stock: 50, CategoryID: 1, ImageURL: &img},
	}}
	s := NewStorage(k, nil, logger.Nop())
	var buf bytes.Buffer

	require.NoError(t, s.ExportProducts(context.Background(), &buf))

	assert.Equal(t,
		"nombre,descripcion,precio,stock,categoria_id,imagen_url\nWhey,90%,4500.00,50,1,https://img/w.png\n",
		buf.String())
}

func TestStaleReadDoesNotRefillCache(t *testing.T) {
	k := &fakeKeeper{products: []models.Product{{ID: 1, Stock: 50}}}
	c := &memCache{}
	s := NewStorage(k, c, logger.Nop())
	ctx := context.Background()

	k.duringList = func() {
		k.products = []models.Product{{ID: 1, Stock: 48}}
		_, err := s.CreateOrder(ctx, models.CreateOrderRequest{
			ClientID: 1, Lines: []models.OrderLine{{ProductID: 1, Quantity: 2}},
		})
		require.NoError(t, err)
	}

	stale, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stale[0].Stock)
	assert.Nil(t, c.products, "a read that raced an order must not be cached")

	fresh, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 48, fresh[0].Stock)
	assert.Equal(t, 2, k.listHits)
}

type racingCache struct {
	memCache
	onSet func()
}

func (c *racingCache) SetProducts(ctx context.Context, p []models.Product) {
	c.memCache.SetProducts(ctx, p)
	if hook := c.onSet; hook != nil {
		c.onSet = nil
		hook()
	}
}

func TestInvalidationDuringFillDropsEntry(t *testing.T) {
	k := &fakeKeeper{products: []models.Product{{ID: 1, Stock: 50}}}
	c := &racingCache{}
	s := NewStorage(k, c, logger.Nop())
	ctx := context.Background()
	c.onSet = func() { s.generation.Add(1) }

	_, err := s.ListProducts(ctx)
	require.NoError(t, err)

	assert.Nil(t, c.products)
	assert.Equal(t, 1, c.invalidated)
}
