// Command server wires together the draft-together backend: the HTTP/WebSocket
// surface, the room registry, and the two background ingestion and
// persistence workers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/api"
	"github.com/Fouche-Hugo/draft-together/internal/bus"
	"github.com/Fouche-Hugo/draft-together/internal/config"
	"github.com/Fouche-Hugo/draft-together/internal/health"
	"github.com/Fouche-Hugo/draft-together/internal/ingest"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/middleware"
	"github.com/Fouche-Hugo/draft-together/internal/persistence"
	"github.com/Fouche-Hugo/draft-together/internal/registry"
	"github.com/Fouche-Hugo/draft-together/internal/store"
	"github.com/Fouche-Hugo/draft-together/internal/transport"
	"github.com/Fouche-Hugo/draft-together/internal/validation"
)

const maxOpenConns = 5

func main() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		// logging isn't initialized yet; stderr is the only sink available.
		println("environment validation failed: " + err.Error())
		os.Exit(1)
	}

	development := cfg.GoEnv != "production"
	if err := logging.Initialize(development); err != nil {
		println("failed to initialize logger: " + err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := sqlx.Connect("postgres", cfg.ConnString())
	if err != nil {
		logging.Fatal(ctx, "failed to connect to database", zap.Error(err))
	}
	db.SetMaxOpenConns(maxOpenConns)
	defer db.Close()

	catalogStore := store.NewCatalogStore(db)
	draftStore := store.NewDraftStore(db)

	validationSet := validation.NewSet()
	if champions, err := catalogStore.ListChampions(ctx); err != nil {
		logging.Error(ctx, "failed to seed validation set from catalog", zap.Error(err))
	} else {
		ids := make([]int, 0, len(champions))
		for _, c := range champions {
			ids = append(ids, c.ID)
		}
		validationSet.Replace(ids)
	}

	var relay *bus.Relay
	if cfg.RedisEnabled {
		relay, err = bus.NewRelay(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logging.Fatal(ctx, "failed to connect to redis broadcast relay", zap.Error(err))
		}
		defer relay.Close()
	}

	reg := registry.New(draftStore)
	hub := transport.NewHub(reg, validationSet, relay)
	handlers := api.NewHandlers(reg, catalogStore)
	healthHandler := health.NewHandler(db, relay)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	ingestWorker := ingest.NewWorker(catalogStore, validationSet)
	ingestWorker.Run(workerCtx)

	persistenceWorker := persistence.NewWorker(reg, draftStore)
	persistenceWorker.Run(workerCtx)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.CorrelationID())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	router.GET("/ws/:room_id", hub.ServeWs)
	router.GET("/draft/:room_id", handlers.GetDraft)
	router.GET("/champions", handlers.GetChampions)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal(ctx, "server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down server")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}

	logging.Info(ctx, "server exiting")
}
