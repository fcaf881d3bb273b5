package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/devstudio/site-api/internal/domain"
)

func TestVerifyEmail_Empty_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)

	_, err := svc.VerifyEmail(context.Background(), "   ")
	requireDomainCode(t, err, "verify_token_not_found")
}

func TestVerifyEmail_Unknown_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)

	_, err := svc.VerifyEmail(context.Background(), "nope")
	requireDomainCode(t, err, "verify_token_not_found")
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not_found kind")
	}
}

func TestVerifyEmail_SingleUse(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	tok := "abc"
	d.users.put(domain.User{ID: "u1", Email: "a@x.com", VerificationToken: &tok})

	u, err := svc.VerifyEmail(context.Background(), "abc")
	if err != nil {
		t.Fatalf("first use: %v", err)
	}
	if !u.Verified || u.VerificationToken != nil {
		t.Fatalf("returned user not verified: %+v", u)
	}
	stored, _ := d.users.stored("u1")
	if !stored.Verified || stored.VerificationToken != nil {
		t.Fatalf("store not updated: %+v", stored)
	}

	_, err = svc.VerifyEmail(context.Background(), "abc")
	requireDomainCode(t, err, "verify_token_not_found")

	requireAuditAction(t, d.audits, "auth.verify_email")
}

func TestVerifyEmail_StoreError_Propagates(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.users.failOn("GetByVerificationToken", domain.ErrDBUnavailable(errors.New("down")))

	_, err := svc.VerifyEmail(context.Background(), "abc")
	requireDomainCode(t, err, "db_unavailable")
}

func TestVerifyEmail_LostRace_NotFound(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	tok := "abc"
	d.users.put(domain.User{ID: "u1", Email: "a@x.com", VerificationToken: &tok})
	d.users.failOn("ConsumeVerificationToken", domain.ErrVerifyTokenNotFound())

	_, err := svc.VerifyEmail(context.Background(), "abc")
	requireDomainCode(t, err, "verify_token_not_found")
}

func TestVerifyEmail_ConcurrentUseConsumesOnce(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	tok := "abc"
	d.users.put(domain.User{ID: "u1", Email: "a@x.com", VerificationToken: &tok})

	const callers = 2
	var looked sync.WaitGroup
	looked.Add(callers)
	// both callers finish the lookup before either writes
	d.users.afterTokenLookup = func() {
		looked.Done()
		looked.Wait()
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyEmail(context.Background(), "abc")
			mu.Lock()
			codes = append(codes, domainCode(err))
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok, notFound := 0, 0
	for _, c := range codes {
		switch c {
		case "":
			ok++
		case "verify_token_not_found":
			notFound++
		}
	}
	if ok != 1 || notFound != 1 {
		t.Fatalf("expected one success and one verify_token_not_found, got %v", codes)
	}
	stored, _ := d.users.stored("u1")
	if !stored.Verified || stored.VerificationToken != nil {
		t.Fatalf("store not updated: %+v", stored)
	}
}
