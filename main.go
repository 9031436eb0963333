package main

import (
	"errors"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/net/netutil"

	"github.com/yumyai/blastview/internal/config"
	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/handler"
	"github.com/yumyai/blastview/pkg/middle"
	"go.uber.org/zap"
)

func main() {

	// Establish logger
	VERSION := "0.1.0"

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, levelErr := logger.ParseLevel(cfg.LogLevel)
	if err := logger.InitLogger(level); err != nil {
		panic(err)
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if levelErr != nil {
		logger.Warn("Unknown BLASTVIEW_LOG_LEVEL, using info", zap.String("level", cfg.LogLevel))
	}
	if cfg.DotenvMissing {
		logger.Warn("No .env found, using local environment")
	}

	store, err := db.NewBlockStore(afero.NewOsFs(), cfg.DataDir)
	if err != nil {
		logger.Fatal("Cannot prepare data directory", zap.String("dir", cfg.DataDir), zap.Error(err))
	}

	ledger, err := db.OpenLedger(cfg.LedgerPath())
	if err != nil {
		logger.Fatal("Cannot open upload ledger", zap.String("path", cfg.LedgerPath()), zap.Error(err))
	}
	defer ledger.Close()

	app := &handler.AppContext{
		Store:          store,
		Ledger:         ledger,
		Results:        handler.NewResultCache(),
		Defaults:       cfg.Defaults,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	}

	logger.Info("Start:", zap.String("Version", VERSION))
	logger.Info("Serving data from", zap.String("DATA_DIR", cfg.DataDir), zap.String("LEDGER", cfg.LedgerPath()))

	reqLogger := middle.CreateMiddlewareLogger(level)
	mux := NewRouter(app, middle.RateLimitMiddleware(cfg.UploadRPS, reqLogger))

	// Apply middleware
	root := middle.Chain(mux, middle.RequestIDMiddleware(reqLogger), middle.LoggingMiddleware(reqLogger))

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("Cannot listen", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	listener = netutil.LimitListener(listener, cfg.MaxConns)

	server := &http.Server{
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting", zap.String("addr", cfg.Addr), zap.Int("max_conns", cfg.MaxConns))
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Error starting server:", zap.String("error message", err.Error()))
	}
}

// NewRouter registers every page and API route. uploadLimit wraps the upload handler only.
func NewRouter(app *handler.AppContext, uploadLimit func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", app.MainPage)
	mux.Handle("POST /upload", uploadLimit(http.HandlerFunc(app.UploadReport)))
	mux.HandleFunc("GET /query/{name}", app.QueryPage)
	mux.HandleFunc("GET /query/{name}/download", app.QueryDownload)
	mux.HandleFunc("POST /aggregate", app.RunAggregate)
	mux.HandleFunc("GET /aggregate", app.AggregatePage)
	mux.HandleFunc("GET /aggregate/download", app.AggregateDownload)

	// API routes
	mux.HandleFunc("GET /api/v1/health", handler.HealthCheck)
	mux.HandleFunc("GET /api/v1/queries", app.QueriesAPI)
	mux.HandleFunc("GET /api/v1/aggregate", app.AggregateAPI)
	mux.HandleFunc("GET /api/v1/uploads", app.UploadsAPI)

	// Static files
	setupStaticFiles(mux)

	return mux
}

// Manually add static for all route that use this
func setupStaticFiles(mux *http.ServeMux) {
	_ = mime.AddExtensionType(".js", "text/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	fs := http.FileServer(http.Dir("./static/"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
}
