package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/expenses/internal/config"
	"github.com/klokku/expenses/internal/database"
	"github.com/klokku/expenses/internal/notifier"
	"github.com/klokku/expenses/internal/utils"
	"github.com/klokku/expenses/pkg/expense"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg     config.Application
	router  *mux.Router
	srv     *http.Server
	closers []func() error
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg}

	repo, ping, err := a.openStorage(context.Background())
	if err != nil {
		a.close()
		return nil, err
	}

	deps := BuildDependencies(repo, ping, utils.SystemClock{})

	if cfg.Amqp.Enabled {
		n, err := notifier.Dial(cfg.Amqp.Url, cfg.Amqp.Exchange)
		if err != nil {
			a.close()
			return nil, err
		}
		n.Register(deps.EventBus)
		a.closers = append(a.closers, n.Close)
		log.Infof("Publishing expense events to AMQP exchange %s", cfg.Amqp.Exchange)
	}

	a.router = NewRouter(deps)
	a.srv = &http.Server{
		Handler:      a.router,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// NewRouter builds the router with middleware and routes.
func NewRouter(deps *Dependencies) *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)
	return r
}

func (a *Application) openStorage(ctx context.Context) (expense.Repository, func(context.Context) error, error) {
	switch a.cfg.Database.Driver {
	case config.DriverPostgres:
		if err := database.Migrate(a.cfg.Database); err != nil {
			return nil, nil, err
		}
		pool, err := database.Open(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return expense.NewRepository(pool), pool.Ping, nil
	case config.DriverSqlite:
		db, err := database.OpenSqlite(ctx, a.cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := database.MigrateSqlite(db); err != nil {
			return nil, nil, err
		}
		return expense.NewSqliteRepository(db), db.PingContext, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", a.cfg.Database.Driver)
	}
}

// Run starts the HTTP server and blocks until it fails or the process receives
// SIGINT/SIGTERM, in which case in-flight requests are drained before returning.
func (a *Application) Run() error {
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *Application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Errorf("error releasing resource: %v", err)
		}
	}
	a.closers = nil
}
