package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/store"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail commands",
	}
	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries older than the retention window",
		Run: func(cmd *cobra.Command, args []string) {
			if retentionDays < 1 {
				log.Fatal("--retention-days must be a positive integer")
			}

			ctx := context.Background()

			pool, err := dbpool.NewPool(ctx, requireDatabaseURL(), dbpool.DefaultDirectoryOptions())
			if err != nil {
				log.WithError(err).Fatal("connecting to directory database")
			}
			defer pool.Close()

			auditStore := store.NewAuditStore(store.Base{Pool: pool, Log: log})
			deleted, err := auditStore.PurgeOldEntries(ctx, retentionDays)
			if err != nil {
				log.WithError(err).Fatal("purging audit entries")
			}

			log.WithFields(logrus.Fields{
				"deleted":        deleted,
				"retention_days": retentionDays,
			}).Info("audit purge complete")
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 365, "delete entries older than this many days")

	return cmd
}
