package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanserver/internal/aggregator"
	"scanserver/internal/config"
	"scanserver/internal/handler"
	"scanserver/internal/logger"
	"scanserver/internal/repository/sqlite"
	"scanserver/internal/route"
	"scanserver/internal/service"
	"scanserver/internal/service/storage"
	"scanserver/internal/service/websocket"
)

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	sessionRepo   *sqlite.SessionRepository
	entryRepo     *sqlite.EntryRepository
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sessionRepo := sqlite.NewSessionRepository(db)

	buffer := storage.NewBufferService(cfg, log, sessionRepo)
	hub := websocket.NewHubService(log)

	agg := aggregator.New(aggregator.Options{
		ErrorThreshold: cfg.ErrorThreshold,
		StopCount:      cfg.StopCount,
		Symbology:      cfg.Symbology,
		Logger:         log,
	})
	mng := service.NewManager(agg, hub, buffer, log)

	return &App{
		config:        cfg,
		logger:        log,
		db:            db,
		sessionRepo:   sessionRepo,
		entryRepo:     sqlite.NewEntryRepository(db),
		bufferService: buffer,
		hubService:    hub,
		manager:       mng,
	}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down and flushes pending
// session results.
func (a *App) Run() error {
	defer a.db.Close()

	// Start background services
	go a.bufferService.Run()
	go a.hubService.Run()

	feedConn, err := handler.ListenFeed(a.config)
	if err != nil {
		return fmt.Errorf("failed to open UDP feed: %w", err)
	}
	go handler.UDPFeedHandler(feedConn, a.manager, a.logger, a.config)

	router := route.SetupRoutes(a.manager, a.hubService, a.config, a.logger, a.sessionRepo, a.entryRepo)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Barcode Scan Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📡 UDP feed: %s\n", feedConn.LocalAddr())
	fmt.Printf("🗄️  Database: %s\n", a.config.DatabasePath)
	fmt.Printf("🔖 Symbology: %s, stop count %d, error threshold %.2f\n",
		a.config.Symbology, a.config.StopCount, a.config.ErrorThreshold)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		feedConn.Close()
		a.shutdownServices()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		a.logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feedConn.Close()
	shutdownErr := server.Shutdown(ctx)
	a.shutdownServices()
	return shutdownErr
}

func (a *App) shutdownServices() {
	// The running session is stored as stopped before the final flush.
	a.manager.StopSession()
	a.bufferService.Stop()
	a.bufferService.Flush()
	a.hubService.Stop()
	a.logger.Info("Shutdown complete, %d results pending", a.bufferService.Pending())
}
