package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/models"
)

// PriorValuesFunc fetches an entity's current values before a mutation.
// Supplied by each entity's own handler package; the wrapper has no
// knowledge of entity shapes.
type PriorValuesFunc func(ctx context.Context, entityID string) (map[string]any, error)

// AuditConfig declares how a route group is audited.
type AuditConfig struct {
	EntityType  string
	IDParam     string          // route param holding the entity id; defaults to "id"
	PriorValues PriorValuesFunc // optional; used for UPDATE and DELETE
}

// auditOperation maps HTTP verbs to audit operations. Verbs not listed are
// not audited by the declarative wrapper.
func auditOperation(method string) string {
	switch method {
	case http.MethodPost:
		return models.OpCreate
	case http.MethodPut, http.MethodPatch:
		return models.OpUpdate
	case http.MethodDelete:
		return models.OpDelete
	default:
		return ""
	}
}

// AuditTrail returns the declarative audit wrapper. It captures the inbound
// payload and prior entity values, runs the handler, and — only when the
// handler succeeded — hands one audit event to the asynchronous write path.
// No failure inside the wrapper ever affects the wrapped request.
func AuditTrail(svc *audit.Service, log *logrus.Logger, cfg AuditConfig) gin.HandlerFunc {
	idParam := cfg.IDParam
	if idParam == "" {
		idParam = "id"
	}

	return func(c *gin.Context) {
		op := auditOperation(c.Request.Method)
		if op == "" {
			c.Next()
			return
		}

		newValues := captureBody(c, log)

		var entityID *string
		if id := c.Param(idParam); id != "" {
			entityID = &id
		}

		// Prior values must be read before the handler mutates the entity.
		var oldValues map[string]any
		if cfg.PriorValues != nil && entityID != nil && (op == models.OpUpdate || op == models.OpDelete) {
			var err error
			oldValues, err = cfg.PriorValues(c.Request.Context(), *entityID)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"entity_type": cfg.EntityType,
					"entity_id":   *entityID,
				}).Warn("audit prior value lookup failed")
				oldValues = nil
			}
		}

		c.Next()

		// Only confirmed successful operations leave a trace.
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		svc.LogEvent(c.Request.Context(), audit.Event{
			EntityType: cfg.EntityType,
			EntityID:   entityID,
			Operation:  op,
			OldValues:  oldValues,
			NewValues:  newValues,
		})
	}
}

// captureBody reads and restores the request body, returning its parsed JSON
// object form, or nil when absent or not an object.
func captureBody(c *gin.Context, log *logrus.Logger) map[string]any {
	if c.Request.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.WithError(err).Debug("audit body capture failed")
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if len(raw) == 0 {
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}

	return values
}
