package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/models"
)

var (
	ErrConflict          = errors.New("data conflict")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoFields          = errors.New("no fields to update")
)

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(format string, args ...any) error {
	return validationError{message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a rejected input rather than a storage failure.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Keeper is a durable backend: postgres through pgx or any gorm dialect.
type Keeper interface {
	Ping(context.Context) bool
	Close() bool

	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	InsertProducts(ctx context.Context, in []models.ProductInput) (*models.ImportSummary, error)

	ListCategories(ctx context.Context) ([]models.Category, error)

	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id int) (models.Client, error)
	CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error)
	UpdateClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error)
	DeleteClient(ctx context.Context, id int) error

	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int) (models.Order, error)
	// CreateOrder prices every line at the current product price, checks and
	// decrements stock and stores the order, all or nothing.
	CreateOrder(ctx context.Context, req models.CreateOrderRequest, at time.Time) (models.Order, error)
	// DeleteOrder gives the stock of every line back before removing the order.
	DeleteOrder(ctx context.Context, id int) error
}

// Cache keeps the catalog reads off the database.
type Cache interface {
	Products(ctx context.Context) ([]models.Product, bool)
	SetProducts(ctx context.Context, products []models.Product)
	Categories(ctx context.Context) ([]models.Category, bool)
	SetCategories(ctx context.Context, categories []models.Category)
	Invalidate(ctx context.Context)
}

// Storage validates requests and forwards them to the keeper.
type Storage struct {
	keeper Keeper
	cache  Cache
	log    Log
	now    func() time.Time

	// generation counts invalidations; a fill that raced one is dropped.
	generation atomic.Uint64
}

// NewStorage creates a new Storage. cache may be nil.
func NewStorage(keeper Keeper, cache Cache, log Log) *Storage {
	return &Storage{
		keeper: keeper,
		cache:  cache,
		log:    log,
		now:    time.Now,
	}
}

func (s *Storage) Ping(ctx context.Context) bool {
	return s.keeper.Ping(ctx)
}

func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		if products, ok := s.cache.Products(ctx); ok {
			return products, nil
		}
	}
	gen := s.generation.Load()
	products, err := s.keeper.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.fill(ctx, gen, func() { s.cache.SetProducts(ctx, products) })
	}
	return products, nil
}

func (s *Storage) GetProduct(ctx context.Context, id int) (models.Product, error) {
	return s.keeper.GetProduct(ctx, id)
}

func (s *Storage) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := validateNewProduct(in); err != nil {
		return models.Product{}, err
	}
	p, err := s.keeper.CreateProduct(ctx, in)
	if err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx)
	s.log.Info("product created", zap.Int("id", p.ID))
	return p, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error) {
	if in.Empty() {
		return models.Product{}, ErrNoFields
	}
	if err := validateProductFields(in); err != nil {
		return models.Product{}, err
	}
	p, err := s.keeper.UpdateProduct(ctx, id, in)
	if err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id int) error {
	if err := s.keeper.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info("product deleted", zap.Int("id", id))
	return nil
}

func (s *Storage) ListCategories(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		if categories, ok := s.cache.Categories(ctx); ok {
			return categories, nil
		}
	}
	gen := s.generation.Load()
	categories, err := s.keeper.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.fill(ctx, gen, func() { s.cache.SetCategories(ctx, categories) })
	}
	return categories, nil
}

func (s *Storage) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.keeper.ListClients(ctx)
}

func (s *Storage) GetClient(ctx context.Context, id int) (models.Client, error) {
	return s.keeper.GetClient(ctx, id)
}

func (s *Storage) CreateClient(ctx context.Context, in models.ClientInput) (models.Client, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return models.Client{}, newValidationError("nombre is required")
	}
	if in.Email == nil || !strings.Contains(*in.Email, "@") {
		return models.Client{}, newValidationError("a valid email is required")
	}
	c, err := s.keeper.CreateClient(ctx, withClientDefaults(in))
	if err != nil {
		return models.Client{}, err
	}
	s.log.Info("client created", zap.Int("id", c.ID))
	return c, nil
}

func (s *Storage) UpdateClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error) {
	if in.Empty() {
		return models.Client{}, ErrNoFields
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return models.Client{}, newValidationError("nombre cannot be empty")
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return models.Client{}, newValidationError("a valid email is required")
	}
	return s.keeper.UpdateClient(ctx, id, in)
}

func (s *Storage) DeleteClient(ctx context.Context, id int) error {
	if err := s.keeper.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.log.Info("client deleted", zap.Int("id", id))
	return nil
}

func (s *Storage) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.keeper.ListOrders(ctx)
}

func (s *Storage) GetOrder(ctx context.Context, id int) (models.Order, error) {
	return s.keeper.GetOrder(ctx, id)
}

func (s *Storage) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	req, err := normalizeOrder(req)
	if err != nil {
		return models.Order{}, err
	}
	order, err := s.keeper.CreateOrder(ctx, req, s.now())
	if err != nil {
		return models.Order{}, err
	}
	s.invalidate(ctx)
	s.log.Info("order created",
		zap.Int("id", order.ID), zap.Int("client_id", order.ClientID), zap.String("total", order.Total.String()))
	return order, nil
}

func (s *Storage) DeleteOrder(ctx context.Context, id int) error {
	if err := s.keeper.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info("order deleted", zap.Int("id", id))
	return nil
}

func (s *Storage) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.generation.Add(1)
		s.cache.Invalidate(ctx)
	}
}

// fill stores a list read at generation gen. If a mutation invalidated the
// cache meanwhile, the read may predate it: skip the write, or undo it when
// the invalidation landed during the write itself.
func (s *Storage) fill(ctx context.Context, gen uint64, set func()) {
	if s.generation.Load() != gen {
		return
	}
	set()
	if s.generation.Load() != gen {
		s.cache.Invalidate(ctx)
	}
}

func validateNewProduct(in models.ProductInput) error {
	switch {
	case in.Name == nil || strings.TrimSpace(*in.Name) == "":
		return newValidationError("nombre is required")
	case in.Price == nil:
		return newValidationError("precio is required")
	case in.Stock == nil:
		return newValidationError("stock is required")
	case in.CategoryID == nil:
		return newValidationError("categoria_id is required")
	}
	return validateProductFields(in)
}

func validateProductFields(in models.ProductInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return newValidationError("nombre cannot be empty")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return newValidationError("precio cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return newValidationError("stock cannot be negative")
	}
	return nil
}

func withClientDefaults(in models.ClientInput) models.ClientInput {
	empty := ""
	if in.Phone == nil {
		in.Phone = &empty
	}
	if in.Address == nil {
		in.Address = &empty
	}
	return in
}

// normalizeOrder validates the request and folds repeated products into one
// line, so the stock check sees the full quantity.
func normalizeOrder(req models.CreateOrderRequest) (models.CreateOrderRequest, error) {
	if req.ClientID <= 0 {
		return req, newValidationError("cliente_id is required")
	}
	if len(req.Lines) == 0 {
		return req, newValidationError("the order has no products")
	}

	quantities := make(map[int]int, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return req, newValidationError("cantidad for producto %d must be at least 1", l.ProductID)
		}
		quantities[l.ProductID] += l.Quantity
	}

	out := models.CreateOrderRequest{ClientID: req.ClientID, Lines: make([]models.OrderLine, 0, len(quantities))}
	for _, l := range req.Lines {
		if q, ok := quantities[l.ProductID]; ok {
			out.Lines = append(out.Lines, models.OrderLine{ProductID: l.ProductID, Quantity: q})
			delete(quantities, l.ProductID)
		}
	}
	// lock rows in a stable order across concurrent orders
	sort.SliceStable(out.Lines, func(i, j int) bool { return out.Lines[i].ProductID < out.Lines[j].ProductID })
	return out, nil
}
