package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Employee_Manager/internal/config"
	"github.com/Dias221467/Employee_Manager/internal/database"
	"github.com/Dias221467/Employee_Manager/internal/metrics"
	"github.com/Dias221467/Employee_Manager/internal/repository"
	"github.com/Dias221467/Employee_Manager/internal/services"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
	"github.com/Dias221467/Employee_Manager/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "employee_manager"

// app is the wired object graph shared by the commands.
type app struct {
	cfg      *config.Config
	store    repository.ObjectiveStore
	clock    tracker.Clock
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	service  *services.ObjectiveService
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a.clock = tracker.SystemClock{Location: loc}

	a.metrics, err = metrics.New(metricsNamespace, a.registry)
	if err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case config.DriverMongo:
		db, err := database.ConnectDB(cfg)
		if err != nil {
			return nil, err
		}
		a.store = repository.NewMongoStore(db)
		a.closers = append(a.closers, func(ctx context.Context) error {
			return database.Disconnect(ctx, db)
		})
	default:
		store, err := repository.NewSQLStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.store = repository.NewCachedStore(a.store, client, cfg.CacheTTL)
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	}

	a.service = services.NewObjectiveService(a.store, a.clock, a.metrics)
	logger.Log.WithField("driver", cfg.StorageDriver).Info("Storage initialized")
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Log.WithError(fmt.Errorf("closing resource: %w", err)).Warn("Shutdown cleanup failed")
		}
	}
	a.closers = nil
}
