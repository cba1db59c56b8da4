// Package rbac implements the role/permission graph: the static permission
// catalog, the implication rules applied to every role write, and the
// permission checks the enforcement gate builds on.
package rbac

import (
	"fmt"
	"sort"
	"strings"

	"github.com/invoxlabs/invox/internal/models"
)

// Definition is one recognized permission key in the static catalog.
// The database seed mirrors this list; the in-process copy exists so role
// writes can validate keys without a round trip.
type Definition struct {
	Key         string
	Category    string
	Description string
}

// Definitions is the full permission catalog, grouped by category.
var Definitions = []Definition{
	{"invoice.view", "invoice", "View invoices"},
	{"invoice.create", "invoice", "Create invoices"},
	{"invoice.edit", "invoice", "Edit invoices"},
	{"invoice.delete", "invoice", "Delete invoices"},
	{"invoice.validate", "invoice", "Validate invoices"},
	{"invoice.save", "invoice", "Save validated invoices"},
	{"invoice.post", "invoice", "Post invoices to the tax authority"},
	{"invoice.uploader", "invoice", "Bulk upload invoices"},
	{"invoice.template", "invoice", "Download the invoice upload template"},
	{"invoice.export", "invoice", "Export invoices"},
	{"buyer.view", "buyer", "View buyers"},
	{"buyer.create", "buyer", "Create buyers"},
	{"buyer.edit", "buyer", "Edit buyers"},
	{"buyer.delete", "buyer", "Delete buyers"},
	{"buyer.uploader", "buyer", "Bulk upload buyers"},
	{"buyer.template", "buyer", "Download the buyer upload template"},
	{"product.view", "product", "View products"},
	{"product.create", "product", "Create products"},
	{"product.edit", "product", "Edit products"},
	{"product.delete", "product", "Delete products"},
	{"product.uploader", "product", "Bulk upload products"},
	{"product.template", "product", "Download the product upload template"},
	{"report.view", "report", "View aggregated reports"},
	{"audit.view", "audit", "View the audit log"},
	{"audit.export", "audit", "Export the audit log"},
	{"role.view", "role", "View roles"},
	{"role.manage", "role", "Create, edit and delete roles"},
}

var knownKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Definitions))
	for _, d := range Definitions {
		m[d.Key] = struct{}{}
	}
	return m
}()

// IsKnownKey reports whether key is part of the catalog.
func IsKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// ValidateKeys rejects permission sets containing unrecognized keys.
func ValidateKeys(keys []string) error {
	var unknown []string

	for _, k := range keys {
		if !IsKnownKey(k) {
			unknown = append(unknown, k)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", models.ErrUnknownPermissionKey, strings.Join(unknown, ", "))
	}

	return nil
}
