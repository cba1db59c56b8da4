package rbac

import "sort"

// Directionality controls how an implication rule behaves when its trigger
// is absent from the requested set.
type Directionality int

const (
	// Derived: the implied keys exist iff the trigger does. They are never
	// independently grantable and are stripped even when explicitly
	// requested without their trigger.
	Derived Directionality = iota

	// OneWay: the implied keys are added when the trigger is present but
	// never removed when it is absent.
	OneWay
)

// Rule maps a trigger capability to the capabilities it implies.
type Rule struct {
	Trigger string
	Implied []string
	Mode    Directionality
}

// Rules is the declarative implication table evaluated by Reconcile.
//
// The report.view rule is deliberately one-directional: removing report.view
// from a role does not remove view access to the record types it aggregates.
// Preserve this asymmetry; it is relied upon.
var Rules = []Rule{
	{Trigger: "invoice.uploader", Implied: []string{"invoice.template"}, Mode: Derived},
	{Trigger: "buyer.uploader", Implied: []string{"buyer.template"}, Mode: Derived},
	{Trigger: "product.uploader", Implied: []string{"product.template"}, Mode: Derived},
	{Trigger: "invoice.validate", Implied: []string{"invoice.save"}, Mode: Derived},
	{Trigger: "report.view", Implied: []string{"invoice.view", "buyer.view", "product.view"}, Mode: OneWay},
}

// Reconcile applies the implication table to a requested permission set and
// returns the set to persist, sorted and de-duplicated. Reapplying to an
// already-consistent set is a no-op.
func Reconcile(requested []string) []string {
	set := make(map[string]struct{}, len(requested))
	for _, k := range requested {
		set[k] = struct{}{}
	}

	// Strip strictly-derived keys whose trigger is absent, even when they
	// were explicitly requested.
	for _, r := range Rules {
		if r.Mode != Derived {
			continue
		}
		if _, ok := set[r.Trigger]; ok {
			continue
		}
		for _, implied := range r.Implied {
			delete(set, implied)
		}
	}

	// Add everything implied by a present trigger.
	for _, r := range Rules {
		if _, ok := set[r.Trigger]; !ok {
			continue
		}
		for _, implied := range r.Implied {
			set[implied] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}
