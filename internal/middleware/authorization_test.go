package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func gatedRequest(roles []string, withRoles bool, required domain.Role) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := RequireRole(required, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/categories/1", nil)
	if withRoles {
		ctx := context.WithValue(req.Context(), UserIDKey, int64(1))
		ctx = context.WithValue(ctx, UserRolesKey, roles)
		req = req.WithContext(ctx)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, called
}

func TestProperty_RoleGateRunsHandlerOnlyForHolders(t *testing.T) {
	properties := gopter.NewProperties(nil)

	roleGen := gen.OneConstOf(domain.RoleUser, domain.RoleEdit, domain.RoleGrantEdit, domain.RoleSuperAdmin)

	properties.Property("handler runs iff the required role is held", prop.ForAll(
		func(held []string, required domain.Role) bool {
			w, called := gatedRequest(held, true, required)

			if domain.HasRole(held, required) {
				return called && w.Code == http.StatusOK
			}
			return !called && w.Code == http.StatusForbidden
		},
		gen.SliceOf(gen.OneConstOf("ROLE_USER", "ROLE_EDIT", "ROLE_GRANT_EDIT", "ROLE_SUPER_ADMIN")),
		roleGen,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRequireRole_SuperAdminDoesNotImplyEdit(t *testing.T) {
	w, called := gatedRequest([]string{"ROLE_USER", "ROLE_SUPER_ADMIN"}, true, domain.RoleEdit)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, MsgAccessDenied, body.Error)
}

func TestRequireRole_NoRolesInContext(t *testing.T) {
	w, called := gatedRequest(nil, false, domain.RoleUser)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
