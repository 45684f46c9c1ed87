package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/auth"
	"github.com/fjod/plantshop/internal/cart"
	"github.com/fjod/plantshop/internal/catalog"
	"github.com/fjod/plantshop/internal/checkout"
	"github.com/fjod/plantshop/internal/config"
	"github.com/fjod/plantshop/internal/orders"
	"github.com/fjod/plantshop/internal/storage"
)

// app is one storefront session and everything it owns.
type app struct {
	kv        storage.KV
	catalog   *catalog.Catalog
	cart      *cart.Store
	auth      *auth.Store
	ledger    orders.Repository
	publisher orders.Publisher
	checkout  *checkout.Service
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.catalog, err = catalog.Load()
	if err != nil {
		return nil, err
	}

	a.kv, err = storage.Open(ctx, cfg.StorageOptions(), logger)
	if err != nil {
		return nil, err
	}

	a.cart, err = cart.New(ctx, a.kv, cart.WithLogger(logger.Named("cart")))
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewHasher(cfg.Auth.PasswordHashing)
	if err != nil {
		return nil, err
	}
	a.auth, err = auth.New(ctx, a.kv, auth.WithLogger(logger.Named("auth")), auth.WithHasher(hasher))
	if err != nil {
		return nil, err
	}

	switch cfg.Orders.Backend {
	case "postgres":
		pg, err := orders.NewPostgresRepository(ctx, cfg.Orders.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open order ledger: %w", err)
		}
		a.ledger = pg
	default:
		a.ledger = orders.NewStorageRepository(a.kv)
	}

	if len(cfg.Events.KafkaBrokers) > 0 {
		a.publisher = orders.NewKafkaPublisher(cfg.Events.Topic, cfg.Events.KafkaBrokers...)
	} else {
		a.publisher = orders.NopPublisher{}
	}

	a.checkout = checkout.NewService(a.cart, a.catalog, a.auth, a.ledger, checkout.Settings{
		TaxRate:         cfg.TaxRate(),
		ProcessingDelay: config.Duration(cfg.Checkout.ProcessingDelay),
		Currency:        cfg.Checkout.Currency,
	}, checkout.WithLogger(logger.Named("checkout")), checkout.WithPublisher(a.publisher))

	return a, nil
}

// Close ends the session. The stores are closed before the storage they write to.
func (a *app) Close() error {
	var errs []error
	if a.cart != nil {
		errs = append(errs, a.cart.Close())
	}
	if a.auth != nil {
		errs = append(errs, a.auth.Close())
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	return errors.Join(errs...)
}
