// Package gormkeeper stores the catalog, clients and orders through gorm. It
// backs local sqlite installs and can also run on postgres.
package gormkeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/storage"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type GormKeeper struct {
	db  *gorm.DB
	log Log
}

// Open connects with the named dialect ("sqlite" or "postgres") and migrates the schema.
func Open(dialect, dsn string, log Log) (*GormKeeper, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	return New(db, log)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB, log Log) (*GormKeeper, error) {
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.Client{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("gorm schema ready", zap.String("dialect", db.Dialector.Name()))
	return &GormKeeper{db: db, log: log}, nil
}

func (kp *GormKeeper) DB() *gorm.DB { return kp.db }

func (kp *GormKeeper) Ping(ctx context.Context) bool {
	sqlDB, err := kp.db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}
	return true
}

func (kp *GormKeeper) Close() bool {
	sqlDB, err := kp.db.DB()
	if err != nil {
		return false
	}
	if err := sqlDB.Close(); err != nil {
		kp.log.Error("Failed to close database", zap.Error(err))
		return false
	}
	kp.log.Info("Database connection closed")
	return true
}

func (kp *GormKeeper) productQuery(ctx context.Context) *gorm.DB {
	return kp.db.WithContext(ctx).
		Table("productos AS p").
		Select("p.*, COALESCE(c.nombre, '') AS categoria_nombre").
		Joins("LEFT JOIN categorias c ON p.categoria_id = c.id")
}

func (kp *GormKeeper) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := kp.productQuery(ctx).Order("p.id").Scan(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (kp *GormKeeper) GetProduct(ctx context.Context, id int) (models.Product, error) {
	var products []models.Product
	if err := kp.productQuery(ctx).Where("p.id = ?", id).Scan(&products).Error; err != nil {
		return models.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	if len(products) == 0 {
		return models.Product{}, storage.ErrNotFound
	}
	return products[0], nil
}

func (kp *GormKeeper) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	p := productFromInput(in)
	if err := kp.db.WithContext(ctx).Create(&p).Error; err != nil {
		return models.Product{}, mapError(err)
	}
	return kp.GetProduct(ctx, p.ID)
}

func (kp *GormKeeper) UpdateProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error) {
	res := kp.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(productUpdates(in))
	if res.Error != nil {
		return models.Product{}, mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Product{}, storage.ErrNotFound
	}
	return kp.GetProduct(ctx, id)
}

func (kp *GormKeeper) DeleteProduct(ctx context.Context, id int) error {
	var lines int64
	db := kp.db.WithContext(ctx)
	if err := db.Model(&models.OrderItem{}).Where("producto_id = ?", id).Count(&lines).Error; err != nil {
		return fmt.Errorf("failed to count order lines: %w", err)
	}
	if lines > 0 {
		return fmt.Errorf("product %d is part of %d order lines: %w", id, lines, storage.ErrConflict)
	}
	return deleteByID(db, &models.Product{}, id)
}

func (kp *GormKeeper) InsertProducts(ctx context.Context, in []models.ProductInput) (*models.ImportSummary, error) {
	if len(in) == 0 {
		return &models.ImportSummary{}, nil
	}

	var resp models.ImportSummary
	err := kp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := make([]models.Product, 0, len(in))
		for _, i := range in {
			products = append(products, productFromInput(i))
		}
		if err := tx.CreateInBatches(&products, 100).Error; err != nil {
			return mapError(err)
		}

		var all []models.Product
		if err := tx.Select("precio", "categoria_id").Find(&all).Error; err != nil {
			return fmt.Errorf("failed to calculate stats: %w", err)
		}
		categories := make(map[int]struct{})
		resp.TotalPrice = decimal.Zero
		for _, p := range all {
			categories[p.CategoryID] = struct{}{}
			resp.TotalPrice = resp.TotalPrice.Add(p.Price)
		}
		resp.TotalItems = len(all)
		resp.TotalCategories = len(categories)
		return nil
	})
	if err != nil {
		return nil, err
	}

	kp.log.Info("Products successfully inserted, stats calculated.", zap.Int("count", len(in)))
	return &resp, nil
}

func (kp *GormKeeper) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := kp.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (kp *GormKeeper) ListClients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	if err := kp.db.WithContext(ctx).Order("id").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (kp *GormKeeper) GetClient(ctx context.Context, id int) (models.Client, error) {
	var c models.Client
	if err := kp.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

func (kp *GormKeeper) CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error) {
	c := models.Client{}
	applyClient(&c, in)
	if err := kp.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

func (kp *GormKeeper) UpdateClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error) {
	var c models.Client
	err := kp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return mapError(err)
		}
		applyClient(&c, in)
		return mapError(tx.Save(&c).Error)
	})
	if err != nil {
		return models.Client{}, err
	}
	return c, nil
}

func (kp *GormKeeper) DeleteClient(ctx context.Context, id int) error {
	var orders int64
	db := kp.db.WithContext(ctx)
	if err := db.Model(&models.Order{}).Where("cliente_id = ?", id).Count(&orders).Error; err != nil {
		return fmt.Errorf("failed to count client orders: %w", err)
	}
	if orders > 0 {
		return fmt.Errorf("client %d has %d orders: %w", id, orders, storage.ErrConflict)
	}
	return deleteByID(db, &models.Client{}, id)
}

func (kp *GormKeeper) orderQuery(ctx context.Context) *gorm.DB {
	return kp.db.WithContext(ctx).
		Table("pedidos AS o").
		Select("o.*, COALESCE(c.nombre, '') AS cliente_nombre, COALESCE(c.email, '') AS cliente_email").
		Joins("LEFT JOIN clientes c ON o.cliente_id = c.id")
}

func (kp *GormKeeper) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := kp.orderQuery(ctx).Order("o.fecha DESC, o.id DESC").Scan(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (kp *GormKeeper) GetOrder(ctx context.Context, id int) (models.Order, error) {
	var orders []models.Order
	if err := kp.orderQuery(ctx).Where("o.id = ?", id).Scan(&orders).Error; err != nil {
		return models.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	if len(orders) == 0 {
		return models.Order{}, storage.ErrNotFound
	}
	order := orders[0]

	items := []models.OrderItem{}
	err := kp.db.WithContext(ctx).
		Table("detalle_pedido AS d").
		Select("d.*, COALESCE(p.nombre, '') AS producto_nombre").
		Joins("LEFT JOIN productos p ON d.producto_id = p.id").
		Where("d.pedido_id = ?", id).
		Order("d.id").
		Scan(&items).Error
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items = items
	return order, nil
}

func (kp *GormKeeper) CreateOrder(ctx context.Context, req models.CreateOrderRequest, at time.Time) (models.Order, error) {
	order := models.Order{
		ClientID:  req.ClientID,
		CreatedAt: models.NewTimestamp(at),
		Status:    models.DefaultStatus,
		Total:     decimal.Zero,
	}

	err := kp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Client{}, req.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cliente %d: %w", req.ClientID, storage.ErrNotFound)
			}
			return err
		}

		for _, l := range req.Lines {
			var p models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, l.ProductID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("producto %d: %w", l.ProductID, storage.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if p.Stock < l.Quantity {
				return fmt.Errorf("producto %d: %w", l.ProductID, storage.ErrInsufficientStock)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", l.ProductID, l.Quantity).
				Update("stock", gorm.Expr("stock - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("producto %d: %w", l.ProductID, storage.ErrInsufficientStock)
			}

			order.Total = order.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			order.Items = append(order.Items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: p.Price})
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return models.Order{}, err
	}

	return kp.GetOrder(ctx, order.ID)
}

func (kp *GormKeeper) DeleteOrder(ctx context.Context, id int) error {
	return kp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			return mapError(err)
		}
		for _, item := range order.Items {
			err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("pedido_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}

func productFromInput(in models.ProductInput) models.Product {
	p := models.Product{Price: decimal.Zero}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	p.ImageURL = in.ImageURL
	return p
}

func productUpdates(in models.ProductInput) map[string]any {
	updates := make(map[string]any)
	if in.Name != nil {
		updates["nombre"] = *in.Name
	}
	if in.Description != nil {
		updates["descripcion"] = *in.Description
	}
	if in.Price != nil {
		updates["precio"] = *in.Price
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.CategoryID != nil {
		updates["categoria_id"] = *in.CategoryID
	}
	if in.ImageURL != nil {
		updates["imagen_url"] = *in.ImageURL
	}
	return updates
}

func applyClient(c *models.Client, in models.ClientInput) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
}

func deleteByID(db *gorm.DB, model any, id int) error {
	res := db.Delete(model, id)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%v: %w", err, storage.ErrConflict)
	}
	return err
}
