package gormkeeper

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/drstein77/fitstore/internal/models"
)

const unsplash = "https://images.unsplash.com/"

type seedItem struct {
	order, product, quantity int
	price                    int64
}

type seedOrder struct {
	client int
	at     string
	total  int64
	status models.OrderStatus
}

var (
	seedCategories = []models.Category{
		{Name: "Proteínas", Description: "Suplementos proteicos para construcción muscular"},
		{Name: "Pre-Entreno", Description: "Suplementos energéticos para antes del entrenamiento"},
		{Name: "Vitaminas", Description: "Suplementos vitamínicos y minerales"},
		{Name: "Creatina", Description: "Suplementos de creatina para fuerza y rendimiento"},
		{Name: "Aminoácidos", Description: "BCAA y otros aminoácidos esenciales"},
	}

	seedProducts = []struct {
		name, description string
		price             int64
		stock, category   int
		image             string
	}{
		{"Whey Protein Isolate", "Proteína aislada de suero de leche, 90% pureza", 4500, 50, 1, "photo-1593095948071-474c5cc2989d"},
		{"Whey Protein Concentrate", "Proteína concentrada de suero, sabor chocolate", 3200, 75, 1, "photo-1579722820308-d74e571900a9"},
		{"Proteína Vegana", "Mezcla de proteínas vegetales, sin lácteos", 3800, 40, 1, "photo-1610441009633-9b4e4cbb6d0d"},
		{"Pre-Workout Extreme", "Fórmula pre-entreno con cafeína y beta-alanina", 2800, 60, 2, "photo-1526401485004-46910ecc8e51"},
		{"Creatina Monohidrato", "Creatina pura micronizada, 300g", 1500, 100, 4, "photo-1541534741688-6078c6bfb5c5"},
		{"BCAA 2:1:1", "Aminoácidos ramificados, 300 cápsulas", 2200, 80, 5, "photo-1505751172876-fa1923c5c528"},
		{"Glutamina Pure", "L-Glutamina pura, 500g", 1800, 65, 5, "photo-1616671276441-2f2c277b8bf6"},
		{"Multivitamínico Premium", "Complejo vitamínico completo, 60 cápsulas", 1200, 90, 3, "photo-1550572017-edd951aa8f72"},
		{"Omega 3 Fish Oil", "Aceite de pescado rico en EPA y DHA", 1600, 70, 3, "photo-1607619056574-7b8d3ee536b2"},
		{"ZMA Complex", "Zinc, Magnesio y Vitamina B6, 90 cápsulas", 1400, 55, 3, "photo-1556909114-f6e7ad7d3136"},
		{"Caseína Micelar", "Proteína de absorción lenta, ideal para la noche", 4200, 45, 1, "photo-1594737625785-8e8f0e5e5e5e"},
		{"Beta Alanina", "Mejora resistencia y reduce fatiga muscular", 1700, 50, 2, "photo-1599932595450-13f1b6e1c8b0"},
	}

	seedClients = []models.Client{
		{Name: "Juan Pérez", Email: "juan.perez@email.com", Phone: "381-5551234", Address: "Av. Aconquija 1200, Tucumán"},
		{Name: "María González", Email: "maria.gonzalez@email.com", Phone: "381-5555678", Address: "Calle San Martín 450, Tucumán"},
		{Name: "Carlos Rodríguez", Email: "carlos.rodriguez@email.com", Phone: "381-5559876", Address: "Av. Mate de Luna 2500, Tucumán"},
		{Name: "Ana Martínez", Email: "ana.martinez@email.com", Phone: "381-5553456", Address: "Calle Las Heras 780, Tucumán"},
		{Name: "Luis Fernández", Email: "luis.fernandez@email.com", Phone: "381-5557890", Address: "Av. Roca 1500, Tucumán"},
		{Name: "Laura Sánchez", Email: "laura.sanchez@email.com", Phone: "381-5552345", Address: "Barrio Jardín 340, Tucumán"},
		{Name: "Diego Ramírez", Email: "diego.ramirez@email.com", Phone: "381-5558901", Address: "Calle Córdoba 920, Tucumán"},
		{Name: "Sofía Torres", Email: "sofia.torres@email.com", Phone: "381-5554567", Address: "Av. Sarmiento 670, Tucumán"},
		{Name: "Martín López", Email: "martin.lopez@email.com", Phone: "381-5556789", Address: "Barrio Norte 1100, Tucumán"},
		{Name: "Valentina Castro", Email: "valentina.castro@email.com", Phone: "381-5551111", Address: "Calle 25 de Mayo 550, Tucumán"},
		{Name: "Fernando Díaz", Email: "fernando.diaz@email.com", Phone: "381-5552222", Address: "Av. Belgrano 890, Tucumán"},
		{Name: "Carolina Ruiz", Email: "carolina.ruiz@email.com", Phone: "381-5553333", Address: "Barrio San Pablo 230, Tucumán"},
	}

	// totals are the historical ones and are stored as recorded
	seedOrders = []seedOrder{
		{1, "2025-11-01 10:30:00", 7700, models.StatusCompleted},
		{2, "2025-11-02 14:15:00", 6000, models.StatusCompleted},
		{3, "2025-11-03 09:20:00", 4500, models.StatusInProcess},
		{4, "2025-11-04 16:45:00", 8200, models.StatusCompleted},
		{5, "2025-11-05 11:00:00", 3200, models.StatusPending},
		{6, "2025-11-06 13:30:00", 5800, models.StatusCompleted},
		{7, "2025-11-07 15:20:00", 7000, models.StatusInProcess},
		{8, "2025-11-08 10:10:00", 4600, models.StatusCompleted},
		{9, "2025-11-09 12:45:00", 6800, models.StatusPending},
		{10, "2025-11-10 14:00:00", 9200, models.StatusCompleted},
	}

	seedItems = []seedItem{
		{1, 1, 1, 4500}, {1, 4, 1, 2800}, {1, 8, 1, 1200},
		{2, 2, 1, 3200}, {2, 5, 1, 1500}, {2, 10, 1, 1400},
		{3, 1, 1, 4500},
		{4, 3, 1, 3800}, {4, 4, 1, 2800}, {4, 9, 1, 1600},
		{5, 2, 1, 3200},
		{6, 6, 1, 2200}, {6, 7, 2, 1800},
		{7, 1, 1, 4500}, {7, 5, 1, 1500}, {7, 12, 1, 1700},
		{8, 8, 2, 1200}, {8, 9, 1, 1600}, {8, 7, 1, 1800},
		{9, 1, 1, 4500}, {9, 6, 1, 2200},
		{10, 11, 2, 4200}, {10, 12, 1, 1700},
	}
)

// Seed fills an empty database with the demo catalog, clients and order history.
// It does nothing when categories already exist.
func (kp *GormKeeper) Seed(ctx context.Context) error {
	var count int64
	if err := kp.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		kp.log.Info("database already seeded", zap.Int64("categories", count))
		return nil
	}

	return kp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := append([]models.Category(nil), seedCategories...)
		if err := tx.Create(&categories).Error; err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}

		products := make([]models.Product, 0, len(seedProducts))
		for _, p := range seedProducts {
			image := unsplash + p.image
			products = append(products, models.Product{
				Name:        p.name,
				Description: p.description,
				Price:       decimal.NewFromInt(p.price),
				Stock:       p.stock,
				CategoryID:  categories[p.category-1].ID,
				ImageURL:    &image,
			})
		}
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}

		clients := append([]models.Client(nil), seedClients...)
		if err := tx.Create(&clients).Error; err != nil {
			return fmt.Errorf("seed clients: %w", err)
		}

		orders := make([]models.Order, 0, len(seedOrders))
		for _, o := range seedOrders {
			at, err := time.Parse(models.TimestampLayout, o.at)
			if err != nil {
				return err
			}
			orders = append(orders, models.Order{
				ClientID:  clients[o.client-1].ID,
				CreatedAt: models.NewTimestamp(at),
				Total:     decimal.NewFromInt(o.total),
				Status:    o.status,
			})
		}
		for _, it := range seedItems {
			o := &orders[it.order-1]
			o.Items = append(o.Items, models.OrderItem{
				ProductID: products[it.product-1].ID,
				Quantity:  it.quantity,
				UnitPrice: decimal.NewFromInt(it.price),
			})
		}
		if err := tx.Create(&orders).Error; err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}

		kp.log.Info("database seeded",
			zap.Int("categories", len(categories)), zap.Int("products", len(products)),
			zap.Int("clients", len(clients)), zap.Int("orders", len(orders)))
		return nil
	})
}
