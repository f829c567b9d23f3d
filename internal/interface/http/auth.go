package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/embedpath/hardwarehub-backend/internal/application/command"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
	"github.com/embedpath/hardwarehub-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JWT TOKENS
// ══════════════════════════════════════════════════════════════════════════════

// learnerClaims is the payload of a learner access token.
type learnerClaims struct {
	LearnerID string `json:"learner_id"`
	jwt.RegisteredClaims
}

// issueToken signs a new access token for a learner.
func (s *Server) issueToken(learnerID string) (token string, expiresAt time.Time, err error) {
	if s.config.JWTSecret == "" {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}

	ttl := s.config.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now().UTC()
	expiresAt = now.Add(ttl)

	claims := learnerClaims{
		LearnerID: learnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learnerID,
			Issuer:    "hardwarehub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// parseToken verifies the token signature and expiry and returns the learner ID.
func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &learnerClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*learnerClaims)
	if !ok || claims.LearnerID == "" {
		return "", errors.New("malformed token claims")
	}
	return claims.LearnerID, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// requireLearner requires a valid Bearer token and puts the learner ID into the context.
func (s *Server) requireLearner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authorization header with Bearer token is required")
			return
		}

		learnerID, err := s.parseToken(raw)
		if err != nil {
			s.logger.Warn("rejected access token",
				logger.Err(err),
				logger.String("path", r.URL.Path),
				logger.String("request_id", getRequestID(r.Context())),
			)
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Access token is invalid or expired")
			return
		}

		ctx := contextWithLearnerID(r.Context(), learnerID)
		next(w, r.WithContext(ctx))
	}
}

// requireAPIKey requires a valid administrative API key.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.APIKeys) == 0 {
			writeJSONError(w, http.StatusForbidden, "admin_disabled", "No administrative API keys are configured")
			return
		}

		header := s.config.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}

		key := r.Header.Get(header)
		if key == "" {
			key = bearerToken(r)
		}

		for _, valid := range s.config.APIKeys {
			if key == valid {
				next(w, r)
				return
			}
		}

		writeJSONError(w, http.StatusUnauthorized, "invalid_api_key", "A valid API key is required")
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	LearnerID   string    `json:"learner_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Tier        string    `json:"tier,omitempty"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleRegister creates an account and returns an access token.
// POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	result, err := s.deps.RegisterLearnerHandler.Handle(r.Context(), command.RegisterLearnerCommand{
		Email:         req.Email,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			writeJSONError(w, http.StatusConflict, "email_taken", "A learner with this email already exists")
			return
		}
		s.respondError(w, r, "register learner", err)
		return
	}

	token, expiresAt, err := s.issueToken(string(result.LearnerID))
	if err != nil {
		s.respondError(w, r, "issue token", err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		LearnerID:   string(result.LearnerID),
		Email:       result.Email.String(),
		DisplayName: req.DisplayName,
		Tier:        result.Tier.String(),
		Token:       token,
		ExpiresAt:   expiresAt,
	})
}

// handleLogin verifies credentials and returns an access token.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	email, err := shared.NewEmail(req.Email)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
		return
	}

	acc, err := s.deps.LearnerRepo.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
			return
		}
		s.respondError(w, r, "login", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.CredentialHash), []byte(req.Password)) != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
		return
	}

	token, expiresAt, err := s.issueToken(string(acc.ID))
	if err != nil {
		s.respondError(w, r, "issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		LearnerID:   string(acc.ID),
		Email:       acc.Email.String(),
		DisplayName: acc.DisplayName,
		Token:       token,
		ExpiresAt:   expiresAt,
	})
}
