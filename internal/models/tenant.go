package models

import "time"

// Tenant is a row in the shared directory store describing one isolated
// business customer. Provisioned externally; this service only reads it.
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StoreDSN    string    `json:"-"` // locator of the tenant's isolated database, never serialized
	Active      bool      `json:"active"`
	CompanyName string    `json:"company_name,omitempty"`
	TaxNumber   string    `json:"tax_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
