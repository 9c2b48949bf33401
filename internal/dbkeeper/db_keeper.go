package dbkeeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/storage"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// DBKeeper is the postgres keeper built directly on a pgx pool.
type DBKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

func NewDBKeeper(ctx context.Context, dsn func() string, log Log) *DBKeeper {
	addr := dsn()
	if addr == "" {
		log.Error("database dsn is empty")
		return nil
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN: ", zap.Error(err))
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database: ", zap.Error(err))
		return nil
	}

	log.Info("Connected!")

	return &DBKeeper{
		pool: pool,
		log:  log,
	}
}

const productSelect = `
	SELECT p.id, p.nombre, COALESCE(p.descripcion, ''), p.precio, p.stock,
		COALESCE(p.categoria_id, 0), COALESCE(c.nombre, ''), p.imagen_url
	FROM productos p
	LEFT JOIN categorias c ON p.categoria_id = c.id`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CategoryName, &p.ImageURL)
	return p, err
}

func (kp *DBKeeper) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := kp.pool.Query(ctx, productSelect+` ORDER BY p.id`)
	if err != nil {
		kp.log.Error("Failed to execute query", zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			kp.log.Error("Failed to scan row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		kp.log.Error("Error occurred during rows iteration", zap.Error(rows.Err()))
		return nil, fmt.Errorf("error during rows iteration: %w", rows.Err())
	}
	return products, nil
}

func (kp *DBKeeper) GetProduct(ctx context.Context, id int) (models.Product, error) {
	p, err := scanProduct(kp.pool.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return models.Product{}, mapError(err)
	}
	return p, nil
}

func (kp *DBKeeper) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	var id int
	err := kp.pool.QueryRow(ctx, `
		INSERT INTO productos (nombre, descripcion, precio, stock, categoria_id, imagen_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		in.Name, in.Description, in.Price, in.Stock, in.CategoryID, in.ImageURL,
	).Scan(&id)
	if err != nil {
		return models.Product{}, mapError(err)
	}
	return kp.GetProduct(ctx, id)
}

// UpdateProduct only overwrites the columns whose input is set.
func (kp *DBKeeper) UpdateProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error) {
	tag, err := kp.pool.Exec(ctx, `
		UPDATE productos SET
			nombre = COALESCE($2, nombre),
			descripcion = COALESCE($3, descripcion),
			precio = COALESCE($4, precio),
			stock = COALESCE($5, stock),
			categoria_id = COALESCE($6, categoria_id),
			imagen_url = COALESCE($7, imagen_url)
		WHERE id = $1`,
		id, in.Name, in.Description, in.Price, in.Stock, in.CategoryID, in.ImageURL,
	)
	if err != nil {
		return models.Product{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.Product{}, storage.ErrNotFound
	}
	return kp.GetProduct(ctx, id)
}

func (kp *DBKeeper) DeleteProduct(ctx context.Context, id int) error {
	return kp.deleteByID(ctx, `DELETE FROM productos WHERE id = $1`, id)
}

func (kp *DBKeeper) InsertProducts(ctx context.Context, products []models.ProductInput) (*models.ImportSummary, error) {
	if len(products) == 0 {
		return &models.ImportSummary{}, nil
	}

	if kp.pool == nil {
		return nil, fmt.Errorf("database connection pool is nil")
	}

	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		kp.log.Error("Failed to begin transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer kp.rollback(ctx, tx)

	stmt := `INSERT INTO productos (nombre, descripcion, precio, stock, categoria_id, imagen_url) VALUES ($1, $2, $3, $4, $5, $6)`
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(stmt, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ImageURL)
	}

	br := tx.SendBatch(ctx, batch)
	for range products {
		if _, execErr := br.Exec(); execErr != nil {
			br.Close()
			return nil, fmt.Errorf("failed to execute batch query: %w", mapError(execErr))
		}
	}
	if closeErr := br.Close(); closeErr != nil {
		kp.log.Error("Failed to close batch", zap.Error(closeErr))
	}

	var resp models.ImportSummary
	statsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := tx.QueryRow(statsCtx, `
		SELECT COUNT(*), COUNT(DISTINCT categoria_id), COALESCE(SUM(precio), 0)
		FROM productos
	`)
	if scanErr := row.Scan(&resp.TotalItems, &resp.TotalCategories, &resp.TotalPrice); scanErr != nil {
		return nil, fmt.Errorf("failed to calculate stats: %w", scanErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	kp.log.Info("Products successfully inserted, stats calculated.", zap.Int("count", len(products)))
	return &resp, nil
}

func (kp *DBKeeper) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := kp.pool.Query(ctx, `SELECT id, nombre, COALESCE(descripcion, '') FROM categorias ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Category, error) {
		var c models.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description)
		return c, err
	})
}

const clientSelect = `SELECT id, nombre, email, COALESCE(telefono, ''), COALESCE(direccion, '') FROM clientes`

func scanClient(row pgx.Row) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address)
	return c, err
}

func (kp *DBKeeper) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := kp.pool.Query(ctx, clientSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Client, error) {
		return scanClient(row)
	})
}

func (kp *DBKeeper) GetClient(ctx context.Context, id int) (models.Client, error) {
	c, err := scanClient(kp.pool.QueryRow(ctx, clientSelect+` WHERE id = $1`, id))
	if err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

func (kp *DBKeeper) CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error) {
	c, err := scanClient(kp.pool.QueryRow(ctx, `
		INSERT INTO clientes (nombre, email, telefono, direccion)
		VALUES ($1, $2, $3, $4)
		RETURNING id, nombre, email, COALESCE(telefono, ''), COALESCE(direccion, '')`,
		in.Name, in.Email, in.Phone, in.Address,
	))
	if err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

func (kp *DBKeeper) UpdateClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error) {
	c, err := scanClient(kp.pool.QueryRow(ctx, `
		UPDATE clientes SET
			nombre = COALESCE($2, nombre),
			email = COALESCE($3, email),
			telefono = COALESCE($4, telefono),
			direccion = COALESCE($5, direccion)
		WHERE id = $1
		RETURNING id, nombre, email, COALESCE(telefono, ''), COALESCE(direccion, '')`,
		id, in.Name, in.Email, in.Phone, in.Address,
	))
	if err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

func (kp *DBKeeper) DeleteClient(ctx context.Context, id int) error {
	return kp.deleteByID(ctx, `DELETE FROM clientes WHERE id = $1`, id)
}

const orderSelect = `
	SELECT o.id, o.cliente_id, COALESCE(c.nombre, ''), COALESCE(c.email, ''), o.fecha, o.total, COALESCE(o.estado, '')
	FROM pedidos o
	LEFT JOIN clientes c ON o.cliente_id = c.id`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.ClientID, &o.ClientName, &o.ClientEmail, &o.CreatedAt, &o.Total, &o.Status)
	return o, err
}

func (kp *DBKeeper) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := kp.pool.Query(ctx, orderSelect+` ORDER BY o.fecha DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Order, error) {
		return scanOrder(row)
	})
}

func (kp *DBKeeper) GetOrder(ctx context.Context, id int) (models.Order, error) {
	order, err := scanOrder(kp.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return models.Order{}, mapError(err)
	}

	rows, err := kp.pool.Query(ctx, `
		SELECT d.id, d.pedido_id, d.producto_id, COALESCE(p.nombre, ''), d.cantidad, d.precio_unitario
		FROM detalle_pedido d
		LEFT JOIN productos p ON d.producto_id = p.id
		WHERE d.pedido_id = $1
		ORDER BY d.id`, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OrderItem, error) {
		var it models.OrderItem
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to scan order items: %w", err)
	}
	return order, nil
}

func (kp *DBKeeper) CreateOrder(ctx context.Context, req models.CreateOrderRequest, at time.Time) (models.Order, error) {
	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		kp.log.Error("Failed to begin transaction", zap.Error(err))
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer kp.rollback(ctx, tx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clientes WHERE id = $1)`, req.ClientID).Scan(&exists); err != nil {
		return models.Order{}, err
	}
	if !exists {
		return models.Order{}, fmt.Errorf("cliente %d: %w", req.ClientID, storage.ErrNotFound)
	}

	total := decimal.Zero
	prices := make([]decimal.Decimal, len(req.Lines))
	for i, l := range req.Lines {
		var (
			price decimal.Decimal
			stock int
		)
		err := tx.QueryRow(ctx, `SELECT precio, stock FROM productos WHERE id = $1 FOR UPDATE`, l.ProductID).Scan(&price, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, fmt.Errorf("producto %d: %w", l.ProductID, storage.ErrNotFound)
		}
		if err != nil {
			return models.Order{}, err
		}
		if stock < l.Quantity {
			return models.Order{}, fmt.Errorf("producto %d: %w", l.ProductID, storage.ErrInsufficientStock)
		}
		prices[i] = price
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO pedidos (cliente_id, fecha, total, estado)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		req.ClientID, models.NewTimestamp(at), total, string(models.DefaultStatus),
	).Scan(&id)
	if err != nil {
		return models.Order{}, mapError(err)
	}

	batch := &pgx.Batch{}
	for i, l := range req.Lines {
		batch.Queue(`INSERT INTO detalle_pedido (pedido_id, producto_id, cantidad, precio_unitario) VALUES ($1, $2, $3, $4)`,
			id, l.ProductID, l.Quantity, prices[i])
		batch.Queue(`UPDATE productos SET stock = stock - $2 WHERE id = $1`, l.ProductID, l.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return models.Order{}, fmt.Errorf("failed to store order lines: %w", mapError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return kp.GetOrder(ctx, id)
}

func (kp *DBKeeper) DeleteOrder(ctx context.Context, id int) error {
	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer kp.rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		UPDATE productos p SET stock = p.stock + d.cantidad
		FROM detalle_pedido d
		WHERE d.producto_id = p.id AND d.pedido_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM detalle_pedido WHERE pedido_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM pedidos WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (kp *DBKeeper) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}

	return true
}

func (kp *DBKeeper) Close() bool {
	if kp.pool != nil {
		kp.pool.Close()
		kp.log.Info("Database connection pool closed")
		return true
	}
	kp.log.Info("Attempted to close a nil database connection pool")
	return false
}

func (kp *DBKeeper) deleteByID(ctx context.Context, stmt string, id int) error {
	tag, err := kp.pool.Exec(ctx, stmt, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (kp *DBKeeper) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		kp.log.Error("Failed to rollback transaction", zap.Error(err))
	}
}

// mapError turns driver errors into the storage sentinels.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%s: %w", pgErr.Message, storage.ErrConflict)
		case "23514":
			return fmt.Errorf("%s: %w", pgErr.Message, storage.ErrInsufficientStock)
		}
	}
	return err
}
