// Package server wires the document store: it opens PostgreSQL, applies
// migrations, builds the services and runs the gRPC endpoint until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ttychat/internal/logging"
	"github.com/dmitrijs2005/ttychat/internal/server/config"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ttychat/internal/server/services"

	gs "github.com/dmitrijs2005/ttychat/internal/server/grpc"
)

type App struct {
	config              *config.Config
	logger              logging.Logger
	db                  *sql.DB
	authService         *services.AuthService
	documentService     *services.DocumentService
	notificationService *services.NotificationService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	broker := services.NewBroker(services.DefaultSubscriptionBuffer)

	return &App{
		config:              c,
		logger:              logger,
		db:                  db,
		authService:         services.NewAuthService(c),
		documentService:     services.NewDocumentService(db, rm, broker),
		notificationService: services.NewNotificationService(db, rm, &http.Client{}, c.NotifyTimeout, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.documentService, app.notificationService, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
