package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/invoxlabs/invox/internal/api"
	"github.com/invoxlabs/invox/internal/models"
)

func TestRoleCreate_Valid(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		createFn: func(_ context.Context, req models.CreateRoleRequest) (*models.Role, error) {
			return &models.Role{ID: 1, Name: req.Name, Permissions: []string{"invoice.view"}}, nil
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.POST("/roles", h.Create)

	w := doRequest(r, http.MethodPost, "/roles", `{"name":"Clerk","permissions":["invoice.view"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var role models.Role
	if err := json.Unmarshal(w.Body.Bytes(), &role); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if role.Name != "Clerk" {
		t.Errorf("name = %q", role.Name)
	}
}

func TestRoleCreate_MissingName(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewRoleHandler(&mockRoleService{}, testLogger())
	r.POST("/roles", h.Create)

	w := doRequest(r, http.MethodPost, "/roles", `{"permissions":["invoice.view"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleCreate_UnknownPermissionKey(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		createFn: func(_ context.Context, _ models.CreateRoleRequest) (*models.Role, error) {
			return nil, models.ErrUnknownPermissionKey
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.POST("/roles", h.Create)

	w := doRequest(r, http.MethodPost, "/roles", `{"name":"Clerk","permissions":["nope"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleCreate_NameConflict(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		createFn: func(_ context.Context, _ models.CreateRoleRequest) (*models.Role, error) {
			return nil, models.ErrRoleNameConflict
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.POST("/roles", h.Create)

	w := doRequest(r, http.MethodPost, "/roles", `{"name":"Clerk"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleUpdate_SystemRoleImmutable(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		updateFn: func(_ context.Context, _ int64, _ models.UpdateRoleRequest) (*models.Role, error) {
			return nil, models.ErrSystemRoleImmutable
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.PUT("/roles/:id", h.Update)

	w := doRequest(r, http.MethodPut, "/roles/1", `{"permissions":[]}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "system_role_immutable") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRoleUpdate_InvalidID(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewRoleHandler(&mockRoleService{}, testLogger())
	r.PUT("/roles/:id", h.Update)

	w := doRequest(r, http.MethodPut, "/roles/abc", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleDelete_InUse(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		deleteFn: func(context.Context, int64) error {
			return models.ErrRoleInUse
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.DELETE("/roles/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/roles/3", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoleGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockRoleService{
		getFn: func(context.Context, int64) (*models.Role, error) {
			return nil, models.ErrRoleNotFound
		},
	}

	r := newTestRouter()
	h := api.NewRoleHandler(svc, testLogger())
	r.GET("/roles/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/roles/9", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
