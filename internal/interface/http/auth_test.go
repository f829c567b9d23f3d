package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	config := DefaultConfig()
	config.JWTSecret = "test-secret"
	config.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&config)
	}

	return NewServer(config, Dependencies{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Tokens
// ─────────────────────────────────────────────────────────────────────────────

func TestIssueAndParseToken(t *testing.T) {
	s := newTestServer(t, nil)

	token, expiresAt, err := s.issueToken("learner-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	learnerID, err := s.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "learner-123", learnerID)
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.JWTSecret = "" })

	_, _, err := s.issueToken("learner-123")
	assert.Error(t, err)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	issuer := newTestServer(t, func(c *Config) { c.JWTSecret = "secret-a" })
	verifier := newTestServer(t, func(c *Config) { c.JWTSecret = "secret-b" })

	token, _, err := issuer.issueToken("learner-123")
	require.NoError(t, err)

	_, err = verifier.parseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	s := newTestServer(t, nil)

	claims := learnerClaims{
		LearnerID: "learner-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "learner-123",
			Issuer:    "hardwarehub",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.parseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	s := newTestServer(t, nil)

	_, err := s.parseToken("not.a.token")
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// requireLearner
// ─────────────────────────────────────────────────────────────────────────────

func TestRequireLearner_PutsLearnerIDIntoContext(t *testing.T) {
	s := newTestServer(t, nil)

	token, _, err := s.issueToken("learner-42")
	require.NoError(t, err)

	var got string
	handler := s.requireLearner(func(w http.ResponseWriter, r *http.Request) {
		got = getLearnerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learners/me/progress", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "learner-42", got)
}

func TestRequireLearner_MissingToken(t *testing.T) {
	s := newTestServer(t, nil)

	handler := s.requireLearner(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learners/me/progress", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestRequireLearner_InvalidToken(t *testing.T) {
	s := newTestServer(t, nil)

	handler := s.requireLearner(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/learners/me/progress", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

// ─────────────────────────────────────────────────────────────────────────────
// requireAPIKey
// ─────────────────────────────────────────────────────────────────────────────

func TestRequireAPIKey_NoKeysConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	handler := s.requireAPIKey(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/insights/sync", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin_disabled")
}

func TestRequireAPIKey_HeaderAndBearer(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.APIKeys = []string{"admin-key"} })

	called := 0
	handler := s.requireAPIKey(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	})

	// Via the configured header.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/insights/sync", nil)
	req.Header.Set("X-API-Key", "admin-key")
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Via the Authorization fallback.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/insights/sync", nil)
	req.Header.Set("Authorization", "Bearer admin-key")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 2, called)
}

func TestRequireAPIKey_WrongKey(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.APIKeys = []string{"admin-key"} })

	handler := s.requireAPIKey(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/insights/sync", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_api_key")
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", bearerToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "", bearerToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(req))
}
