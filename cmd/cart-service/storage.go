package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/rocketcart/internal/config"
	"github.com/fjod/rocketcart/internal/storage"
)

// openSnapshots connects the backend selected by STORAGE.
func openSnapshots(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.SnapshotStore, error) {
	switch cfg.Storage {
	case "memory":
		log.Warn("cart snapshots are kept in memory and lost on restart")
		return storage.NewMemoryStore(), nil

	case "file":
		store, err := storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		log.Info("storing cart snapshots on disk", "dir", cfg.StorageDir)
		return store, nil

	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("connected to redis", "addr", cfg.RedisAddr)
		return storage.NewRedisStore(redisClient), nil

	case "mongo":
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		store := storage.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			store.Close()
			return nil, err
		}
		log.Info("connected to mongodb", "database", cfg.MongoDBName)
		return store, nil

	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		store, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return migrated(store, log, "sqlite")

	case "postgres":
		store, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return migrated(store, log, "postgres")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func migrated(store *storage.SQLStore, log *slog.Logger, name string) (storage.SnapshotStore, error) {
	if err := store.RunMigrations(); err != nil {
		store.Close()
		return nil, err
	}
	log.Info("sql snapshot store ready", "driver", name)
	return store, nil
}
