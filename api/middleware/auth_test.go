package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/restockhq/restock-backend/pkg/auth"
	"github.com/restockhq/restock-backend/pkg/config"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "restock-test",
		ExpirationMinutes: 15,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID, businessID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     userID,
		BusinessID: businessID,
		JTI:        uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := jwtConfig()
	userID, businessID := uuid.New(), uuid.New()

	var gotUser, gotBusiness string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotBusiness = BusinessIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, userID, businessID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != userID.String() || gotBusiness != businessID.String() {
		t.Fatalf("context not seeded: user=%q business=%q", gotUser, gotBusiness)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(jwtConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	cfg := jwtConfig()
	other := cfg
	other.Secret = "another-secret-another-secret-or-so"

	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad signature")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, other, uuid.New(), uuid.New()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
