package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/invoxlabs/invox/internal/db"
	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/store"
	"github.com/invoxlabs/invox/internal/tenants"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the directory database",
		Run: func(cmd *cobra.Command, args []string) {
			if err := db.MigrateDirectory(context.Background(), requireDatabaseURL(), log); err != nil {
				log.WithError(err).Fatal("directory migration failed")
			}
			log.Info("directory migrations applied")
		},
	}
}

func newMigrateTenantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-tenants",
		Short: "Apply pending migrations to every active tenant store",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			pool, err := dbpool.NewPool(ctx, requireDatabaseURL(), dbpool.DefaultDirectoryOptions())
			if err != nil {
				log.WithError(err).Fatal("connecting to directory database")
			}
			defer pool.Close()

			directory := store.NewDirectoryStore(store.Base{Pool: pool, Log: log})
			mux := tenants.NewMultiplexer(directory, nil, log)
			defer mux.Close()

			err = mux.ForEachActiveTenant(ctx, func(ctx context.Context, h *tenants.Handle) error {
				if err := db.MigrateTenant(ctx, h.Tenant.StoreDSN, log); err != nil {
					log.WithError(err).WithField("tenant", h.Tenant.ID).Error("tenant migration failed")
					return err
				}
				log.WithField("tenant", h.Tenant.ID).Info("tenant migrated")
				return nil
			})
			if err != nil {
				log.Fatal("one or more tenant migrations failed")
			}
			log.Info("all tenant migrations applied")
		},
	}
}
