// Package audit implements the diffed, tamper-evident trail of mutating
// operations. Writes are fire-and-forget: entries are enqueued to a single
// worker goroutine after the primary operation has succeeded, and no audit
// failure is ever observable to the caller.
package audit

import (
	"context"

	"github.com/invoxlabs/invox/internal/models"
)

// RequestMeta carries the actor, tenant and request metadata denormalized
// onto every audit entry written during a request.
type RequestMeta struct {
	Actor     *models.Actor
	TenantID  string
	IP        string
	UserAgent string
	RequestID string
}

type metaKey struct{}

// WithMeta attaches request metadata to a context.
func WithMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFrom returns the request metadata attached to ctx, if any.
func MetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(metaKey{}).(RequestMeta)
	return meta, ok
}
