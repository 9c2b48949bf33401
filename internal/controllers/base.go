package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/middleware"
	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/storage"
)

// Storage interface for database operations
type Storage interface {
	Ping(context.Context) bool

	ListProducts(context.Context) ([]models.Product, error)
	GetProduct(context.Context, int) (models.Product, error)
	CreateProduct(context.Context, models.ProductInput) (models.Product, error)
	UpdateProduct(context.Context, int, models.ProductInput) (models.Product, error)
	DeleteProduct(context.Context, int) error
	ImportProducts(context.Context, io.Reader) (*models.ImportSummary, error)
	ExportProducts(context.Context, io.Writer) error

	ListCategories(context.Context) ([]models.Category, error)

	ListClients(context.Context) ([]models.Client, error)
	GetClient(context.Context, int) (models.Client, error)
	CreateClient(context.Context, models.ClientInput) (models.Client, error)
	UpdateClient(context.Context, int, models.ClientInput) (models.Client, error)
	DeleteClient(context.Context, int) error

	ListOrders(context.Context) ([]models.Order, error)
	GetOrder(context.Context, int) (models.Order, error)
	CreateOrder(context.Context, models.CreateOrderRequest) (models.Order, error)
	DeleteOrder(context.Context, int) error
}

// Log interface for logging
type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// BaseController serves the store API
type BaseController struct {
	storage Storage
	log     Log
}

// NewBaseController creates a new BaseController instance
func NewBaseController(storage Storage, log Log) *BaseController {
	return &BaseController{
		storage: storage,
		log:     log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/ping", h.ping)

	r.Route("/productos", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.With(middleware.ArchiveTypeMiddleware).Post("/import", h.importProducts)
		r.Get("/export", h.exportProducts)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})

	r.Get("/categorias", h.listCategories)

	r.Route("/clientes", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.createClient)
		r.Get("/{id}", h.getClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
	})

	r.Route("/pedidos", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Delete("/{id}", h.deleteOrder)
	})

	return r
}

func (h *BaseController) ping(w http.ResponseWriter, r *http.Request) {
	if !h.storage.Ping(r.Context()) {
		writeDetail(w, http.StatusInternalServerError, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "pong"})
}

func (h *BaseController) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.storage.ListProducts(r.Context())
	h.respond(w, r, http.StatusOK, products, err, "")
}

func (h *BaseController) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.storage.GetProduct(r.Context(), id)
	h.respond(w, r, http.StatusOK, p, err, "Producto no encontrado")
}

func (h *BaseController) createProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.storage.CreateProduct(r.Context(), in)
	h.respond(w, r, http.StatusCreated, p, err, "")
}

func (h *BaseController) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.storage.UpdateProduct(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, p, err, "Producto no encontrado")
}

func (h *BaseController) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.storage.DeleteProduct(r.Context(), id)
	h.respond(w, r, http.StatusOK, models.Message{Message: "Producto eliminado exitosamente"}, err, "Producto no encontrado")
}

func (h *BaseController) importProducts(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	summary, err := h.storage.ImportProducts(r.Context(), r.Body)
	h.respond(w, r, http.StatusOK, summary, err, "")
}

// exportProducts renders the whole archive before answering, so a storage
// failure still gets an error status instead of a truncated 200.
func (h *BaseController) exportProducts(w http.ResponseWriter, r *http.Request) {
	var csvData bytes.Buffer
	if err := h.storage.ExportProducts(r.Context(), &csvData); err != nil {
		h.respond(w, r, 0, nil, err, "")
		return
	}

	archiveType := middleware.ArchiveType(r)
	var archive bytes.Buffer
	aw, err := middleware.ArchiveWriter(&archive, archiveType, "productos.csv")
	if err == nil {
		_, err = aw.Write(csvData.Bytes())
	}
	if err == nil {
		err = aw.Close()
	}
	if err != nil {
		h.respond(w, r, 0, nil, fmt.Errorf("build %s archive: %w", archiveType, err), "")
		return
	}

	w.Header().Set("Content-Type", "application/"+archiveType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="productos.%s"`, archiveType))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive.Bytes()); err != nil {
		h.log.Error("failed to send archive", zap.Error(err))
	}
}

func (h *BaseController) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.storage.ListCategories(r.Context())
	h.respond(w, r, http.StatusOK, categories, err, "")
}

func (h *BaseController) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.storage.ListClients(r.Context())
	h.respond(w, r, http.StatusOK, clients, err, "")
}

func (h *BaseController) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.storage.GetClient(r.Context(), id)
	h.respond(w, r, http.StatusOK, c, err, "Cliente no encontrado")
}

func (h *BaseController) createClient(w http.ResponseWriter, r *http.Request) {
	var in models.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.storage.CreateClient(r.Context(), in)
	h.respond(w, r, http.StatusCreated, c, err, "")
}

func (h *BaseController) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.storage.UpdateClient(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, c, err, "Cliente no encontrado")
}

func (h *BaseController) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.storage.DeleteClient(r.Context(), id)
	h.respond(w, r, http.StatusOK, models.Message{Message: "Cliente eliminado exitosamente"}, err, "Cliente no encontrado")
}

func (h *BaseController) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.storage.ListOrders(r.Context())
	h.respond(w, r, http.StatusOK, orders, err, "")
}

func (h *BaseController) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.storage.GetOrder(r.Context(), id)
	h.respond(w, r, http.StatusOK, o, err, "Pedido no encontrado")
}

func (h *BaseController) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.storage.CreateOrder(r.Context(), req)
	h.respond(w, r, http.StatusCreated, o, err, "")
}

func (h *BaseController) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.storage.DeleteOrder(r.Context(), id)
	h.respond(w, r, http.StatusOK, models.Message{Message: "Pedido eliminado exitosamente"}, err, "Pedido no encontrado")
}

// respond writes v with status, or maps err to an error status and detail.
// notFound overrides the detail of a bare not-found error.
func (h *BaseController) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error, notFound string) {
	if err == nil {
		writeJSON(w, status, v)
		return
	}

	detail := err.Error()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
		if notFound != "" && err == storage.ErrNotFound {
			detail = notFound
		}
	case errors.Is(err, storage.ErrNoFields):
		status, detail = http.StatusBadRequest, "No hay campos para actualizar"
	case errors.Is(err, storage.ErrInsufficientStock), storage.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrConflict):
		status = http.StatusConflict
	default:
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		status, detail = http.StatusInternalServerError, "internal server error"
	}
	writeDetail(w, status, detail)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
