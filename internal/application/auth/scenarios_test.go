package auth

import (
	"context"
	"testing"
)

// End-to-end flows through the service with in-memory fakes.

func TestScenario_SignupThenLoginBeforeVerify_Forbidden(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@x.com", Password: "Str0ngpass"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := svc.Login(ctx, "a@x.com", "Str0ngpass")
	requireDomainCode(t, err, "email_not_verified")
}

func TestScenario_SignupVerifyLogin_Succeeds(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Email: "a@x.com", Password: "Str0ngpass"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.VerifyEmail(ctx, *u.VerificationToken); err != nil {
		t.Fatalf("verify: %v", err)
	}

	res, err := svc.Login(ctx, "a@x.com", "Str0ngpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.User.ID != u.ID || !res.User.Verified {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestScenario_OAuthBrandNew_NoVerificationTokenEver(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)

	res, err := svc.OAuthLogin(context.Background(), OAuthInput{Provider: "google", Email: "fresh@x.com"})
	if err != nil {
		t.Fatalf("oauth: %v", err)
	}
	stored, _ := d.users.stored(res.User.ID)
	if !stored.Verified || stored.VerificationToken != nil {
		t.Fatalf("stored %+v", stored)
	}
	if stored.Role != "user" {
		t.Fatalf("role %q", stored.Role)
	}
}
