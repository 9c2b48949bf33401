package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/cache"
	"github.com/drstein77/fitstore/internal/config"
	"github.com/drstein77/fitstore/internal/controllers"
	"github.com/drstein77/fitstore/internal/dbkeeper"
	"github.com/drstein77/fitstore/internal/gormkeeper"
	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/middleware"
	"github.com/drstein77/fitstore/internal/storage"
)

type Server struct {
	srv    *http.Server
	ctx    context.Context
	keeper storage.Keeper
	cache  *cache.RedisCache
	Log    *logger.Logger
}

// NewServer creates a new Server instance with the provided context
func NewServer(ctx context.Context) *Server {
	server := new(Server)
	server.ctx = ctx
	server.Log = logger.Nop()
	return server
}

// Serve reads the options, opens storage and blocks serving HTTP until Shutdown.
func (server *Server) Serve() {
	option := config.NewOptions()
	option.ParseFlags()

	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		log.Fatalln(err)
	}
	server.Log = nLogger

	keeper, err := openKeeper(server.ctx, option, nLogger)
	if err != nil {
		nLogger.Error("storage unavailable", zap.Error(err))
		return
	}
	server.keeper = keeper

	var catalogCache storage.Cache
	if addr := option.RedisAddr(); addr != "" {
		rc, err := cache.Connect(server.ctx, addr, nLogger.With(zap.String("component", "cache")))
		if err != nil {
			nLogger.Warn("catalog cache disabled", zap.Error(err))
		} else {
			server.cache = rc
			catalogCache = rc
		}
	}

	store := storage.NewStorage(keeper, catalogCache, nLogger.With(zap.String("component", "storage")))
	basecontr := controllers.NewBaseController(store, nLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(nLogger))
	r.Mount("/", basecontr.Route())

	server.srv = &http.Server{
		Addr:              option.RunAddr(),
		Handler:           otelhttp.NewHandler(r, "storeapi"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	nLogger.Info("Running server", zap.String("address", option.RunAddr()), zap.String("driver", option.Driver()))
	if err := server.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		nLogger.Error("server stopped", zap.Error(err))
	}
}

// Shutdown stops the HTTP server and releases storage.
func (server *Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if server.srv != nil {
		if err := server.srv.Shutdown(ctx); err != nil {
			server.Log.Error("Server shutdown error", zap.Error(err))
		}
	}
	if server.cache != nil {
		if err := server.cache.Close(); err != nil {
			server.Log.Error("cache close error", zap.Error(err))
		}
	}
	if server.keeper != nil {
		server.keeper.Close()
	}
	server.Log.Info("Server stopped")
	server.Log.Sync()
}

// openKeeper builds the keeper for the configured driver. pgx runs the SQL
// migrations; gorm migrates its models and seeds an empty database.
func openKeeper(ctx context.Context, option *config.Options, log *logger.Logger) (storage.Keeper, error) {
	switch option.Driver() {
	case config.DriverPostgres:
		if err := dbkeeper.Migrate(option.DataBaseDSN(), option.MigrationsDir(), log); err != nil {
			return nil, err
		}
		kp := dbkeeper.NewDBKeeper(ctx, option.DataBaseDSN, log)
		if kp == nil {
			return nil, errors.New("postgres connection failed")
		}
		return kp, nil
	case config.DriverGormPostgres, config.DriverSQLite:
		dialect, dsn := "postgres", option.DataBaseDSN()
		if option.Driver() == config.DriverSQLite {
			dialect, dsn = "sqlite", option.SQLitePath()
		}
		kp, err := gormkeeper.Open(dialect, dsn, log)
		if err != nil {
			return nil, err
		}
		if err := kp.Seed(ctx); err != nil {
			kp.Close()
			return nil, err
		}
		return kp, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", option.Driver())
}
