// Package console is the store's management console: one State value, one
// Update function that applies messages to it, and commands that carry the
// network work and report back as messages.
//
// Only Update touches State, and Dispatch calls it from a single goroutine.
// Every collection refresh is stamped with a generation; a response older
// than the newest request for its collection is dropped.
package console

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/catalog"
	"github.com/drstein77/fitstore/internal/models"
	"github.com/drstein77/fitstore/internal/ordering"
)

// API is the store backend as the console sees it.
type API interface {
	Products(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Clients(ctx context.Context) ([]models.Client, error)
	Orders(ctx context.Context) ([]models.Order, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error)
	SaveProduct(ctx context.Context, id int, in models.ProductInput) (models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	SaveClient(ctx context.Context, id int, in models.ClientInput) (models.Client, error)
	DeleteClient(ctx context.Context, id int) error
	DeleteOrder(ctx context.Context, id int) error
}

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notifier shows a blocking message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type Log interface {
	Debug(string, ...zap.Field)
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Msg is anything Update understands.
type Msg any

// Cmd performs I/O off the update path and reports the result as a Msg.
type Cmd func(ctx context.Context) Msg

type (
	ShowView       struct{ View View }
	SelectCategory struct{ Category catalog.Selection }
	Search         struct{ Text string }
	AddToCart      struct{ ProductID int }
	SetQuantity    struct{ ProductID, Quantity int }
	ClearCart      struct{}
	SubmitOrder    struct{ ClientID int }
	Refresh        struct{ Collections []ordering.Collection }
	DeleteProduct  struct{ ID int }
	DeleteClient   struct{ ID int }
	DeleteOrder    struct{ ID int }
	SaveProduct    struct {
		ID    int
		Input models.ProductInput
	}
	SaveClient struct {
		ID    int
		Input models.ClientInput
	}
)

// results of commands
type (
	orderSubmitted struct {
		order models.Order
		err   error
	}
	loaded struct {
		collection ordering.Collection
		generation uint64
		data       any
		err        error
	}
	deleted struct {
		collection ordering.Collection
		id         int
		err        error
	}
	saved struct {
		collection ordering.Collection
		id         int
		err        error
	}
)

// AllCollections is what the console fetches at start-up.
var AllCollections = []ordering.Collection{ordering.Products, ordering.Categories, ordering.Clients, ordering.Orders}

type Deps struct {
	API       API
	Notifier  Notifier
	Confirmer Confirmer
	Log       Log
}

type App struct {
	state    *State
	api      API
	composer *ordering.Composer
	notify   Notifier
	confirm  Confirmer
	log      Log
}

func New(deps Deps) *App {
	return &App{
		state:    NewState(),
		api:      deps.API,
		composer: ordering.NewComposer(deps.API, deps.Log),
		notify:   deps.Notifier,
		confirm:  deps.Confirmer,
		log:      deps.Log,
	}
}

func (a *App) State() *State { return a.state }

// Update applies msg to the state and returns the commands to run next.
func (a *App) Update(msg Msg) []Cmd {
	s := a.state

	switch m := msg.(type) {
	case nil:
		return nil

	case ShowView:
		s.View = m.View

	case SelectCategory:
		s.Criteria.Category = m.Category

	case Search:
		s.Criteria.Search = m.Text

	case AddToCart:
		if a.cartFrozen() {
			return nil
		}
		p, ok := s.product(m.ProductID)
		if !ok {
			a.notify.Notify(LevelError, fmt.Sprintf("producto %d no encontrado", m.ProductID))
			return nil
		}
		if p.Stock <= 0 {
			a.notify.Notify(LevelError, fmt.Sprintf("%s no tiene stock", p.Name))
			return nil
		}
		s.Cart.Add(p)

	case SetQuantity:
		if a.cartFrozen() {
			return nil
		}
		s.Cart.SetQuantity(m.ProductID, m.Quantity)

	case ClearCart:
		if a.cartFrozen() {
			return nil
		}
		s.Cart.Clear()

	case SubmitOrder:
		return a.submit(m.ClientID)

	case orderSubmitted:
		s.Submitting = false
		if m.err != nil {
			a.notify.Notify(LevelError, fmt.Sprintf("no se pudo crear el pedido: %v", m.err))
			return nil
		}
		outcome := ordering.Settle(s.Cart, m.order)
		s.LastOrder = &outcome.Order
		s.View = ViewOrders
		a.notify.Notify(LevelInfo, fmt.Sprintf("Pedido %d creado exitosamente", m.order.ID))
		return a.refresh(outcome.Refresh...)

	case Refresh:
		return a.refresh(m.Collections...)

	case loaded:
		a.applyLoaded(m)

	case DeleteProduct:
		return a.remove("¿Eliminar este producto?", ordering.Products, m.ID, a.api.DeleteProduct)

	case DeleteClient:
		return a.remove("¿Eliminar este cliente?", ordering.Clients, m.ID, a.api.DeleteClient)

	case DeleteOrder:
		return a.remove("¿Eliminar este pedido?", ordering.Orders, m.ID, a.api.DeleteOrder)

	case deleted:
		if m.err != nil {
			a.notify.Notify(LevelError, fmt.Sprintf("no se pudo eliminar: %v", m.err))
			return nil
		}
		a.log.Info("deleted", zap.String("collection", string(m.collection)), zap.Int("id", m.id))
		return a.refresh(refreshAfterDelete(m.collection)...)

	case SaveProduct:
		return []Cmd{func(ctx context.Context) Msg {
			p, err := a.api.SaveProduct(ctx, m.ID, m.Input)
			return saved{collection: ordering.Products, id: p.ID, err: err}
		}}

	case SaveClient:
		return []Cmd{func(ctx context.Context) Msg {
			c, err := a.api.SaveClient(ctx, m.ID, m.Input)
			return saved{collection: ordering.Clients, id: c.ID, err: err}
		}}

	case saved:
		if m.err != nil {
			a.notify.Notify(LevelError, fmt.Sprintf("no se pudo guardar: %v", m.err))
			return nil
		}
		a.notify.Notify(LevelInfo, fmt.Sprintf("guardado %s %d", m.collection, m.id))
		return a.refresh(m.collection)

	default:
		a.log.Error("unknown message", zap.String("type", fmt.Sprintf("%T", msg)))
	}

	return nil
}

func (a *App) cartFrozen() bool {
	if a.state.Submitting {
		a.notify.Notify(LevelError, "hay un pedido en curso, espere la respuesta")
		return true
	}
	return false
}

func (a *App) submit(clientID int) []Cmd {
	s := a.state
	if s.Submitting {
		a.notify.Notify(LevelError, "hay un pedido en curso, espere la respuesta")
		return nil
	}

	req, err := ordering.Compose(s.Cart.Lines(), clientID)
	if err == nil && s.Clients != nil {
		if _, ok := s.client(clientID); !ok {
			err = ordering.ErrNoClient
		}
	}
	if err != nil {
		a.notify.Notify(LevelError, err.Error())
		return nil
	}

	s.Submitting = true
	return []Cmd{func(ctx context.Context) Msg {
		order, err := a.composer.Send(ctx, req)
		return orderSubmitted{order: order, err: err}
	}}
}

func (a *App) refresh(collections ...ordering.Collection) []Cmd {
	cmds := make([]Cmd, 0, len(collections))
	for _, c := range collections {
		a.state.generations[c]++
		cmds = append(cmds, a.fetch(c, a.state.generations[c]))
	}
	return cmds
}

func (a *App) fetch(c ordering.Collection, gen uint64) Cmd {
	return func(ctx context.Context) Msg {
		res := loaded{collection: c, generation: gen}
		switch c {
		case ordering.Products:
			res.data, res.err = a.api.Products(ctx)
		case ordering.Categories:
			res.data, res.err = a.api.Categories(ctx)
		case ordering.Clients:
			res.data, res.err = a.api.Clients(ctx)
		case ordering.Orders:
			res.data, res.err = a.api.Orders(ctx)
		default:
			res.err = fmt.Errorf("unknown collection %q", c)
		}
		return res
	}
}

func (a *App) applyLoaded(m loaded) {
	s := a.state
	if m.generation != s.generations[m.collection] {
		a.log.Debug("dropping stale response",
			zap.String("collection", string(m.collection)),
			zap.Uint64("generation", m.generation),
			zap.Uint64("latest", s.generations[m.collection]))
		return
	}
	if m.err != nil {
		a.log.Error("refresh failed", zap.String("collection", string(m.collection)), zap.Error(m.err))
		a.notify.Notify(LevelError, fmt.Sprintf("error al cargar %s: %v", m.collection, m.err))
		return
	}

	switch data := m.data.(type) {
	case []models.Product:
		s.Products = data
	case []models.Category:
		s.Categories = data
	case []models.Client:
		s.Clients = data
	case []models.Order:
		s.Orders = data
	}
}

func (a *App) remove(prompt string, c ordering.Collection, id int, del func(context.Context, int) error) []Cmd {
	if !a.confirm.Confirm(prompt) {
		return nil
	}
	return []Cmd{func(ctx context.Context) Msg {
		return deleted{collection: c, id: id, err: del(ctx, id)}
	}}
}

// refreshAfterDelete lists what a delete changes on the backend. Deleting an
// order gives its stock back.
func refreshAfterDelete(c ordering.Collection) []ordering.Collection {
	if c == ordering.Orders {
		return []ordering.Collection{ordering.Orders, ordering.Products}
	}
	return []ordering.Collection{c}
}

// Dispatch applies msg and runs the resulting commands until none are left.
// Commands run concurrently; their results are applied here, one at a time.
func (a *App) Dispatch(ctx context.Context, msg Msg) {
	results := make(chan Msg)
	pending := 0
	start := func(cmds []Cmd) {
		for _, cmd := range cmds {
			pending++
			go func(cmd Cmd) {
				results <- cmd(ctx)
			}(cmd)
		}
	}

	start(a.Update(msg))
	for pending > 0 {
		m := <-results
		pending--
		start(a.Update(m))
	}
}
