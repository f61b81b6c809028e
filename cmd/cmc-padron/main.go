package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"cmc-padron/internal/config"
	"cmc-padron/internal/database"
	"cmc-padron/internal/filter"
	httpapi "cmc-padron/internal/http"
	"cmc-padron/internal/logger"
	"cmc-padron/internal/mqtt"
	"cmc-padron/internal/record"
	"cmc-padron/internal/report"
	"cmc-padron/internal/repository"
	"cmc-padron/internal/service"
	"cmc-padron/internal/specialty"
	"cmc-padron/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "cmc-padron")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		log.Warn("Falling back to UTC", zap.Error(err))
	}

	aliases, err := record.LoadAliasTable(cfg.AliasFile)
	if err != nil {
		log.Fatal("Failed to load alias table", zap.String("path", cfg.AliasFile), zap.Error(err))
	}

	// Postgres 只在记录或目录来源需要时连接
	var db *sql.DB
	if cfg.Records.Source == config.SourcePostgres || cfg.Catalog.Source == config.SourcePostgres {
		pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
		db, err = database.NewPostgresDB(pingCtx, &cfg.Database)
		pingCancel()
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Database))
	}

	// Redis 快照可选：连接失败时目录只依赖来源
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		redisClient, err = store.ConnectRedis(pingCtx, store.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCancel()
		if err != nil {
			log.Warn("Redis unavailable, catalog snapshot disabled", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
		}
	}

	restClient := repository.NewRESTClient(cfg.Records.RESTBaseURL, cfg.Records.RESTTimeout)

	var records repository.RecordSource
	if cfg.Records.Source == config.SourceREST {
		records = repository.NewRESTRecordSource(restClient, cfg.Records.RESTPath, log)
	} else {
		pg, err := repository.NewPostgresRecordSource(db, cfg.Records.Table, log)
		if err != nil {
			log.Fatal("Invalid records table", zap.Error(err))
		}
		records = pg
	}

	var source specialty.Source
	if cfg.Catalog.Source == config.SourceREST {
		source = repository.NewRESTSpecialtySource(restClient, cfg.Catalog.RESTPath, log)
	} else {
		pg, err := repository.NewPostgresSpecialtySource(db, cfg.Catalog.Table, log)
		if err != nil {
			log.Fatal("Invalid catalog table", zap.Error(err))
		}
		source = pg
	}

	catalog := specialty.NewCatalog()
	loader := specialty.NewLoader(catalog, source, kv, specialty.LoaderOptions{
		SnapshotKey: cfg.Catalog.SnapshotKey,
		SnapshotTTL: cfg.Catalog.SnapshotTTL,
		Interval:    cfg.Catalog.RefreshInterval,
	}, log)
	loader.Start(ctx)

	resolver := specialty.NewResolver(catalog, aliases)
	evaluator := filter.NewEvaluator(aliases, resolver, filter.WithLocation(loc))
	builder := report.NewBuilder(report.NewCellFormatter(aliases, resolver, loc), log)
	exports := service.NewExportService(
		records,
		evaluator,
		builder,
		catalog,
		report.NewLogoFetcher(cfg.Report.LogoTimeout, log),
		service.ExportOptions{
			Title:        cfg.Report.Title,
			Subtitle:     cfg.Report.Subtitle,
			LogoURL:      cfg.Report.LogoURL,
			AwaitTimeout: cfg.Catalog.AwaitTimeout,
			Location:     loc,
		},
		log,
	)

	var mqttClient *mqtt.Client
	var notifier httpapi.CatalogNotifier
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT unavailable, catalog reload only via HTTP", zap.Error(err))
		} else {
			broker := mqtt.NewCatalogBroker(mqttClient, loader, cfg.MQTT.Topic, cfg.MQTT.ClientID, log)
			if err := broker.Start(); err != nil {
				log.Warn("Failed to subscribe catalog reload topic", zap.Error(err))
			}
			notifier = broker
		}
	}

	router := httpapi.NewRouter(log)
	router.RegisterPadronRoutes(httpapi.NewPadronHandler(exports, log))
	router.RegisterCatalogRoutes(httpapi.NewCatalogHandler(loader, notifier, log))
	router.RegisterMetricsRoute()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = database.Close(db)
}
