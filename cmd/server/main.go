package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	catalogfile "github.com/nchatharoo/FeaturesVote/internal/adapters/catalog/file"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/handler/http"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/handler/http/middleware"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/notifier/discord"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/notifier/lognotifier"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/store/bolt"
	"github.com/nchatharoo/FeaturesVote/internal/adapters/store/memory"
	storepostgres "github.com/nchatharoo/FeaturesVote/internal/adapters/store/postgres"
	storeredis "github.com/nchatharoo/FeaturesVote/internal/adapters/store/redis"
	"github.com/nchatharoo/FeaturesVote/internal/core/domain"
	"github.com/nchatharoo/FeaturesVote/internal/core/ports"
	"github.com/nchatharoo/FeaturesVote/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var (
		listenAddr  string
		namespace   string
		catalogPath string
		storeDriver string
		boltPath    string
		redisAddr   string
		webhookURL  string
		maxPerDay   int
		minBetween  time.Duration
	)

	flag.StringVar(&listenAddr, "listen", envOr("LISTEN_ADDR", "0.0.0.0:8080"), "Listen address")
	flag.StringVar(&namespace, "namespace", envOr("APP_NAMESPACE", "featuresvote"), "Key namespace, unique per deployment")
	flag.StringVar(&catalogPath, "catalog", envOr("CATALOG_FILE", "features.json"), "Path to the feature catalog JSON file")
	flag.StringVar(&storeDriver, "store", envOr("STORE_DRIVER", "bolt"), "Store driver: memory, bolt, postgres or redis")
	flag.StringVar(&boltPath, "bolt-path", envOr("BOLT_PATH", "featuresvote.db"), "Bolt database file")
	flag.StringVar(&redisAddr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.StringVar(&webhookURL, "webhook-url", envOr("DISCORD_WEBHOOK_URL", ""), "Discord webhook URL, empty logs votes instead")
	flag.IntVar(&maxPerDay, "max-votes-per-day", envOrInt("MAX_VOTES_PER_DAY", 10), "Daily vote quota")
	flag.DurationVar(&minBetween, "min-time-between-votes", envOrDuration("MIN_TIME_BETWEEN_VOTES", 30*time.Second), "Minimum spacing between votes")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store, closeStore, err := openStore(storeDriver, boltPath, redisAddr)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", storeDriver), zap.Error(err))
	}
	defer closeStore()

	policy := domain.RateLimitPolicy{
		MaxVotesPerDay:      maxPerDay,
		MinTimeBetweenVotes: minBetween,
	}
	ledger := services.NewVoteLedger(store, namespace, policy, logger)

	var notifier ports.Notifier
	if webhookURL != "" {
		notifier = discord.NewNotifier(webhookURL)
	} else {
		notifier = lognotifier.NewNotifier(logger)
	}

	service := services.NewVoteService(ledger, notifier, catalogfile.NewLoader(catalogPath), logger)
	if err := service.Reload(context.Background()); err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	limiter := middleware.NewRateLimiter(10, 20)
	defer limiter.Close()

	handler := http.NewHandler(http.NewFeatureHandler(service), http.NewVoteHandler(service), limiter)
	server := &stdhttp.Server{Addr: listenAddr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", zap.String("addr", listenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}

func openStore(driver, boltPath, redisAddr string) (ports.KeyValueStore, func(), error) {
	switch driver {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "bolt":
		store, err := bolt.NewStore(boltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		db, err := sql.Open("postgres", postgresConnString())
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		store := storepostgres.NewStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case "redis":
		store, err := storeredis.NewStore(storeredis.DefaultConfig(redisAddr))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func postgresConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envOr("POSTGRES_USER", "featuresvote"),
		envOr("POSTGRES_PASSWORD", "password"),
		envOr("POSTGRES_HOST", "localhost"),
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_DB", "featuresvote"))
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
