package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/devstudio/site-api/internal/domain"
)

func TestGetByID(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.users.put(domain.User{ID: "u1", Email: "ann@example.com", Role: "user", Verified: true})

	u, err := svc.GetByID(context.Background(), " u1 ")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Email != "ann@example.com" {
		t.Fatalf("email = %q", u.Email)
	}

	_, err = svc.GetByID(context.Background(), "")
	requireDomainCode(t, err, "user_not_found")

	_, err = svc.GetByID(context.Background(), "gone")
	requireDomainCode(t, err, "user_not_found")

	d.users.failOn("GetByID", domain.ErrDBUnavailable(errors.New("conn reset")))
	_, err = svc.GetByID(context.Background(), "u1")
	requireDomainCode(t, err, "db_unavailable")
}
