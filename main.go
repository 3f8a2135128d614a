package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"trade-journal/auth"
	"trade-journal/config"
	"trade-journal/database"
	"trade-journal/handlers"
	"trade-journal/journal"
	"trade-journal/logger"
	"trade-journal/market"
	"trade-journal/middleware"
	"trade-journal/storage"
	"trade-journal/templates"
)

func main() {
	configDir := flag.String("config", "./configs", "directory containing config.yml")
	seed := flag.Bool("seed", false, "insert the demo account and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog, *seed); err != nil {
		zlog.Fatal("Trade journal stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger, seed bool) error {
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	zlog.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	if seed {
		created, err := database.Seed(db, time.Now())
		if err != nil {
			return err
		}
		zlog.Info("Seed finished", zap.Bool("created", created), zap.String("email", database.DemoEmail))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var refresh auth.RefreshStore
	var cache market.Cache
	if cfg.Redis.Addr == "" {
		zlog.Warn("Redis not configured, keeping refresh tokens and quotes in memory")
		refresh = auth.NewMemoryRefreshStore()
		cache = market.NewMemoryCache()
	} else {
		rdb, err := config.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		refresh = auth.NewRedisRefreshStore(rdb)
		cache = market.NewRedisCache(rdb)
	}

	renderer, err := templates.New()
	if err != nil {
		return err
	}

	media := storage.NewMediaStore(cfg.Media.Root, cfg.Media.URLPrefix, cfg.Media.MaxUploadBytes)
	quotes := market.NewQuotes(market.NewClient(cfg.Market, zlog), cache, cfg.Market.CacheTTL, zlog)

	h := handlers.New(handlers.Deps{
		Logger:  zlog,
		Store:   journal.NewStore(db),
		Issuer:  auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Refresh: refresh,
		Media:   media,
		Quotes:  quotes,
		ListDefaults: journal.ListOptions{
			SortBy: cfg.Journal.DefaultSortBy,
			Order:  cfg.Journal.DefaultOrder,
		},
		SecureCookies: cfg.Server.SecureCookies,
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(middleware.RequestLogger(zlog), gin.Recovery())
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = cfg.Media.MaxUploadBytes
	router.HTMLRender = renderer
	if err := router.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("configure trusted proxies: %w", err)
	}
	router.Static(cfg.Media.URLPrefix, media.Root())
	h.Register(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
