package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/models"
)

func setup(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, New(client, "test", time.Minute, logger.Nop())
}

func TestProductsRoundTrip(t *testing.T) {
	mr, c := setup(t)
	ctx := context.Background()

	_, ok := c.Products(ctx)
	assert.False(t, ok)

	c.SetProducts(ctx, []models.Product{{ID: 1, Name: "Whey", Price: decimal.RequireFromString("4500.5"), Stock: 3}})

	products, ok := c.Products(ctx)
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.Equal(t, "Whey", products[0].Name)
	assert.True(t, decimal.RequireFromString("4500.5").Equal(products[0].Price))
	assert.True(t, mr.Exists("test:productos"))
	assert.Equal(t, time.Minute, mr.TTL("test:productos"))
}

func TestInvalidateDropsBothLists(t *testing.T) {
	mr, c := setup(t)
	ctx := context.Background()
	c.SetProducts(ctx, []models.Product{{ID: 1}})
	c.SetCategories(ctx, []models.Category{{ID: 1, Name: "Proteínas"}})

	c.Invalidate(ctx)

	assert.False(t, mr.Exists("test:productos"))
	assert.False(t, mr.Exists("test:categorias"))
	_, ok := c.Categories(ctx)
	assert.False(t, ok)
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	mr, c := setup(t)
	require.NoError(t, mr.Set("test:categorias", "{not json"))

	_, ok := c.Categories(context.Background())

	assert.False(t, ok)
}

func TestUnavailableServerIsAMiss(t *testing.T) {
	mr, c := setup(t)
	mr.Close()

	c.SetProducts(context.Background(), []models.Product{{ID: 1}})
	_, ok := c.Products(context.Background())

	assert.False(t, ok)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect(context.Background(), mr.Addr(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, c.prefix)
	require.NoError(t, c.Close())

	c, err = Connect(context.Background(), "redis://"+mr.Addr()+"/0", logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
