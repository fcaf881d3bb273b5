package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devstudio/site-api/internal/domain"
)

func runRole(t *testing.T, ctx context.Context) (*writeErrRecorder, *nextRecorder) {
	t.Helper()
	we := &writeErrRecorder{}
	nx := &nextRecorder{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil).WithContext(ctx)
	RequireRole(domain.RoleAdmin, we.fn)(nx).ServeHTTP(httptest.NewRecorder(), req)
	return we, nx
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	we, nx := runRole(t, context.Background())
	requireCode(t, we.last, "token_missing")
	if nx.calls != 0 {
		t.Fatal("next must not run without auth context")
	}

	we, _ = runRole(t, WithUser(context.Background(), AuthUser{ID: "u1", Role: "user"}))
	requireCode(t, we.last, "insufficient_role")
	if domain.KindOf(we.last) != domain.KindForbidden {
		t.Fatalf("expected forbidden, got %s", domain.KindOf(we.last))
	}

	we, _ = runRole(t, WithUser(context.Background(), AuthUser{ID: "u1", Role: "root"}))
	requireCode(t, we.last, "forbidden")

	we, nx = runRole(t, WithUser(context.Background(), AuthUser{ID: "a1", Role: "admin"}))
	if we.calls != 0 || nx.calls != 1 {
		t.Fatalf("admin must pass, err=%v", we.last)
	}
}
