package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/store"
)

func newTenantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Tenant directory commands",
	}
	cmd.AddCommand(tenantsListCmd())
	return cmd
}

func tenantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active tenants",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			pool, err := dbpool.NewPool(ctx, requireDatabaseURL(), dbpool.DefaultDirectoryOptions())
			if err != nil {
				log.WithError(err).Fatal("connecting to directory database")
			}
			defer pool.Close()

			directory := store.NewDirectoryStore(store.Base{Pool: pool, Log: log})
			ts, err := directory.ListActiveTenants(ctx)
			if err != nil {
				log.WithError(err).Fatal("listing tenants")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tCREATED")
			for _, t := range ts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					t.ID, t.Name, t.CompanyName, t.CreatedAt.Format("2006-01-02"))
			}
			w.Flush()
		},
	}
}
