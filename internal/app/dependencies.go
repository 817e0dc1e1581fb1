package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
	"github.com/vladislavdragonenkov/ecom/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения.
type Dependencies struct {
	OrderRepo    domain.OrderRepository
	RefChecker   domain.ReferenceChecker
	Catalog      domain.CatalogRepositories
	OutboxRepo   domain.OutboxRepository
	TimelineRepo domain.TimelineRepository
	IdemRepo     domain.IdempotencyRepository

	// Store заполнен только при работе поверх PostgreSQL.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies собирает хранилища: PostgreSQL при заданном DSN
// (с прогоном миграций), иначе in-memory для локальной разработки.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		logger.Info("postgres DSN is empty, using in-memory storage")
		store := memory.NewStore()
		return &Dependencies{
			OrderRepo:    memory.NewOrderRepository(store),
			RefChecker:   memory.NewReferenceChecker(store),
			Catalog:      memory.NewCatalogRepositories(store),
			OutboxRepo:   memory.NewOutboxRepository(),
			TimelineRepo: memory.NewTimelineRepository(),
			IdemRepo:     memory.NewIdempotencyRepository(),
			Logger:       logger,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := store.MigrateUp(ctx, 0); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	return &Dependencies{
		OrderRepo:    postgres.NewOrderRepository(store),
		RefChecker:   postgres.NewReferenceChecker(store),
		Catalog:      postgres.NewCatalogRepositories(store),
		OutboxRepo:   postgres.NewOutboxRepository(store),
		TimelineRepo: postgres.NewTimelineRepository(store),
		IdemRepo:     postgres.NewIdempotencyRepository(store),
		Store:        store,
		Logger:       logger,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
