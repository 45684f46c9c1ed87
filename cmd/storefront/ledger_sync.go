package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/config"
	"github.com/fjod/plantshop/internal/orders"
	"github.com/fjod/plantshop/internal/storage"
)

const ledgerSyncGroup = "storefront-ledger"

var ledgerSyncCmd = &cobra.Command{
	Use:   "ledger-sync",
	Short: "Copy published orders into the order ledger",
	Long: `Consumes order events from Kafka (events.kafka_brokers, events.topic) and
records them in the configured order ledger. Run one instance next to several
storefronts to collect their orders in one Postgres database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return ledgerSync(ctx, cfg, logger)
	},
}

func ledgerSync(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if len(cfg.Events.KafkaBrokers) == 0 {
		return errors.New("ledger-sync needs events.kafka_brokers")
	}

	var repo orders.Repository
	if cfg.Orders.Backend == "postgres" {
		pg, err := orders.NewPostgresRepository(ctx, cfg.Orders.PostgresDSN)
		if err != nil {
			return err
		}
		repo = pg
	} else {
		kv, err := storage.Open(ctx, cfg.StorageOptions(), logger)
		if err != nil {
			return err
		}
		defer kv.Close()
		repo = orders.NewStorageRepository(kv)
	}
	defer repo.Close()

	consumer := orders.NewConsumer(repo, cfg.Events.Topic, ledgerSyncGroup, logger.Named("ledger"), cfg.Events.KafkaBrokers...)
	defer consumer.Close()

	logger.Info("ledger sync started", zap.Strings("brokers", cfg.Events.KafkaBrokers), zap.String("topic", cfg.Events.Topic))
	consumer.Run(ctx)
	logger.Info("ledger sync stopped")
	return nil
}
