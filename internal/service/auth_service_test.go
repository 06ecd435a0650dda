package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relicvault/storefront/internal/config"
	"github.com/relicvault/storefront/internal/identity"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/golang-jwt/jwt/v5"
)

const testTokenSecret = "test-session-secret"

func signTestToken(t *testing.T, secret, userID, role string, ttl time.Duration) string {
	t.Helper()
	claims := SessionClaims{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return signed
}

type identityStub struct {
	err error
}

func (i identityStub) SignInWithPassword(_ context.Context, email, _ string) (*identity.SignInResult, error) {
	if i.err != nil {
		return nil, i.err
	}
	return &identity.SignInResult{IDToken: "id:" + email, Email: email}, nil
}

type exchangerStub struct {
	token    string
	err      error
	received string
}

func (e *exchangerStub) ExchangeToken(_ context.Context, idToken string) (*shopapi.ExchangeResult, error) {
	e.received = idToken
	if e.err != nil {
		return nil, e.err
	}
	return &shopapi.ExchangeResult{Token: e.token}, nil
}

func newAuthServiceForTest(t *testing.T, idp IdentityProvider, ex TokenExchanger) (*AuthService, *CartService, *catalogStub) {
	t.Helper()
	cart, catalog, _, _ := setupCartService(t)
	svc := NewAuthService(
		config.SessionConfig{TokenSecret: testTokenSecret},
		idp,
		ex,
		NewCaptchaService(config.CaptchaConfig{Provider: "none"}),
		cart,
	)
	return svc, cart, catalog
}

func TestLoginExchangesIdentityToken(t *testing.T) {
	ex := &exchangerStub{token: signTestToken(t, testTokenSecret, "u1", "customer", time.Hour)}
	svc, _, _ := newAuthServiceForTest(t, identityStub{}, ex)

	result, err := svc.Login(context.Background(), LoginInput{Email: " Fan@Example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if ex.received != "id:fan@example.com" {
		t.Fatalf("exchange should receive provider token, got %s", ex.received)
	}
	if result.Claims.UserID != "u1" || result.User["id"] != "u1" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.ExpiresAt.IsZero() {
		t.Fatalf("expires_at should be populated")
	}
}

func TestLoginErrors(t *testing.T) {
	ex := &exchangerStub{token: signTestToken(t, "other-secret", "u1", "customer", time.Hour)}
	svc, _, _ := newAuthServiceForTest(t, identityStub{err: identity.ErrInvalidCredentials}, ex)
	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials got %v", err)
	}

	svc, _, _ = newAuthServiceForTest(t, identityStub{err: identity.ErrProviderUnavailable}, ex)
	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrIdentityUnavailable) {
		t.Fatalf("want ErrIdentityUnavailable got %v", err)
	}

	svc, _, _ = newAuthServiceForTest(t, identityStub{}, ex)
	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("token signed with a foreign secret should fail exchange, got %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginInput{Email: "", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty email want ErrInvalidCredentials got %v", err)
	}
}

func TestSocialLoginMapsUnauthorized(t *testing.T) {
	ex := &exchangerStub{err: &shopapi.APIError{Status: 401, Err: shopapi.ErrUnauthorized}}
	svc, _, _ := newAuthServiceForTest(t, identityStub{}, ex)
	if _, err := svc.SocialLogin(context.Background(), "google-id-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials got %v", err)
	}
}

func TestParseSessionTokenRejectsExpiredAndNone(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t, identityStub{}, &exchangerStub{})
	ctx := context.Background()

	expired := signTestToken(t, testTokenSecret, "u1", "admin", -time.Minute)
	if _, err := svc.ParseSessionToken(ctx, expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token want ErrInvalidToken got %v", err)
	}

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.ParseSessionToken(ctx, unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none want ErrInvalidToken got %v", err)
	}
}

func TestLogoutClearsCartAndRevokesToken(t *testing.T) {
	svc, cart, catalog := newAuthServiceForTest(t, identityStub{}, &exchangerStub{})
	ctx := context.Background()
	catalog.put("p1", 10, 3)
	_, _ = cart.AddItem(ctx, "logout-session", "p1", 1)

	token := signTestToken(t, testTokenSecret, "u-logout", "customer", time.Hour)
	if _, err := svc.ParseSessionToken(ctx, token); err != nil {
		t.Fatalf("token should be valid before logout: %v", err)
	}
	if err := svc.Logout(ctx, "logout-session", token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	view, _ := cart.Get(ctx, "logout-session")
	if len(view.Items) != 0 {
		t.Fatalf("cart should be cleared on logout")
	}
	if _, err := svc.ParseSessionToken(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("want ErrTokenRevoked got %v", err)
	}
}

func TestClaimsAdminArea(t *testing.T) {
	for role, want := range map[string]bool{"admin": true, "moderator": true, "support": true, "catalog_manager": true, "customer": false, "": false} {
		c := &SessionClaims{Role: role}
		if c.IsAdminArea() != want {
			t.Fatalf("role %q admin area want %v", role, want)
		}
	}
}
