// Package server assembles the forumtrust service: it opens the database,
// runs migrations, wires the services and serves the HTTP API and the gRPC
// health endpoint until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/config"
	"github.com/dmitrijs2005/forumtrust/internal/server/credentials"
	"github.com/dmitrijs2005/forumtrust/internal/server/httpapi"
	"github.com/dmitrijs2005/forumtrust/internal/server/notify"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/forumtrust/internal/server/services"

	gs "github.com/dmitrijs2005/forumtrust/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	handler     *httpapi.Handler
}

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	links, err := services.NewLinks(c.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	tx := dbx.NewSQLTransactor(db, nil)

	tokens := services.NewTokenService(tx, rm, logger)
	bans := services.NewBanService(tx, rm, logger)
	reports := services.NewReportService(tx, rm, logger)
	accounts := services.NewAccountService(tx, rm, tokens, bans,
		credentials.NewStore(rm, 0), notify.NewLogNotifier(logger), links, c, logger)

	handler := httpapi.NewHandler(c, accounts, bans, reports, db, logger)

	return &App{config: c, logger: logger, db: db, repomanager: rm, handler: handler}, nil
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

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Run migrates the schema and serves until ctx is cancelled, a signal
// arrives or one of the servers fails. The first server failure stops the
// other server and is returned.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() { runErr = err })
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		fail(app.startGRPCServer(ctx))
	}()
	go func() {
		defer wg.Done()
		fail(app.startHTTPServer(ctx))
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
