// Package migrations embeds SQL migration files for invox.
//
// Two independent sets exist: "directory" for the shared directory store
// (tenants, users, roles, permissions, audit log) and "tenant" for each
// isolated tenant store (invoice snapshots and summaries). The tenant set
// is applied once per tenant database by the admin migrate path.
package migrations

import "embed"

// DirectoryFS contains the migration files for the shared directory store.
//
//go:embed directory/*.sql
var DirectoryFS embed.FS

// TenantFS contains the migration files applied to every tenant store.
//
//go:embed tenant/*.sql
var TenantFS embed.FS
