package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/embedpath/hardwarehub-backend/internal/application/command"
	"github.com/embedpath/hardwarehub-backend/internal/application/query"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"
	"github.com/embedpath/hardwarehub-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns the overall health status.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"healthy": true,
			"message": "No health checker configured",
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, status)
}

// handleReady returns readiness status (for Kubernetes).
// GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive returns liveness status (for Kubernetes).
// GET /live
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleRoot returns basic API information.
// GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "HardwareHub API",
		"version": "v1",
		"endpoints": []string{
			"GET /health",
			"POST /api/v1/auth/register",
			"POST /api/v1/auth/login",
			"GET /api/v1/lessons",
			"GET /api/v1/lessons/{id}/quiz",
			"POST /api/v1/lessons/{id}/complete",
			"GET /api/v1/learners/me/progress",
			"POST /api/v1/learners/me/reset",
			"GET /api/v1/insights",
		},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG & INSIGHTS HANDLERS (PUBLIC)
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLessons returns the lesson catalog.
// Anonymous requests see the beginner-tier catalog; with a Bearer token
// the catalog is built for the learner's tier.
// GET /api/v1/lessons?include_locked=true
func (s *Server) handleGetLessons(w http.ResponseWriter, r *http.Request) {
	q := query.GetLessonCatalogQuery{
		IncludeLocked: getQueryParamBool(r, "include_locked"),
	}

	// The token is optional here, but honored when presented.
	if raw := bearerToken(r); raw != "" {
		if learnerID, err := s.parseToken(raw); err == nil {
			q.LearnerID = learnerID
		}
	}

	result, err := s.deps.GetLessonCatalogHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, "get lessons", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: result.TotalCount,
	})
}

// handleGetInsights returns the community insights feed.
// GET /api/v1/insights?theme=...&limit=25
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	q := query.GetCommunityInsightsQuery{
		Theme: getQueryParam(r, "theme", ""),
		Limit: getQueryParamInt(r, "limit", 0),
	}

	result, err := s.deps.GetCommunityInsightsHandler.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, "get insights", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: len(result.Posts),
		FromCache:  result.FromCache,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER HANDLERS (JWT)
// ══════════════════════════════════════════════════════════════════════════════

// handleGetMyProgress returns the authenticated learner's progress.
// GET /api/v1/learners/me/progress
func (s *Server) handleGetMyProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetLearnerProgressHandler.Handle(r.Context(), query.GetLearnerProgressQuery{
		LearnerID: getLearnerID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "get progress", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		FromCache: result.FromCache,
	})
}

// handleCompleteLesson marks a lesson as completed.
// POST /api/v1/lessons/{id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_lesson_id", "Lesson ID must be a positive integer")
		return
	}

	result, err := s.deps.RecordCompletionHandler.Handle(r.Context(), command.RecordCompletionCommand{
		LearnerID:     getLearnerID(r.Context()),
		LessonID:      lessonID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "complete lesson", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLessonQuiz returns the quiz for a lesson, if the tier allows it.
// GET /api/v1/lessons/{id}/quiz
func (s *Server) handleGetLessonQuiz(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_lesson_id", "Lesson ID must be a positive integer")
		return
	}

	quiz, err := s.deps.GetLessonQuizHandler.Handle(r.Context(), query.GetLessonQuizQuery{
		LearnerID: getLearnerID(r.Context()),
		LessonID:  lessonID,
	})
	if err != nil {
		s.respondError(w, r, "get quiz", err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// handleResetMyProgress wipes the authenticated learner's progress.
// POST /api/v1/learners/me/reset
func (s *Server) handleResetMyProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ResetProgressHandler.Handle(r.Context(), command.ResetProgressCommand{
		LearnerID:     getLearnerID(r.Context()),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "reset progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS (API KEY)
// ══════════════════════════════════════════════════════════════════════════════

type overrideTierRequest struct {
	Tier  string `json:"tier"`
	Actor string `json:"actor"`
}

// handleOverrideTier forcibly sets a learner's skill tier.
// PUT /api/v1/admin/learners/{id}/tier
func (s *Server) handleOverrideTier(w http.ResponseWriter, r *http.Request) {
	var req overrideTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	if req.Actor == "" {
		req.Actor = "admin-api"
	}

	result, err := s.deps.OverrideTierHandler.Handle(r.Context(), command.OverrideTierCommand{
		LearnerID:     r.PathValue("id"),
		Tier:          req.Tier,
		Actor:         req.Actor,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "override tier", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAdminResetProgress wipes the specified learner's progress.
// POST /api/v1/admin/learners/{id}/reset
func (s *Server) handleAdminResetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ResetProgressHandler.Handle(r.Context(), command.ResetProgressCommand{
		LearnerID:     r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "reset progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type syncInsightsRequest struct {
	Subreddits        []string `json:"subreddits,omitempty"`
	PostsPerSubreddit int      `json:"posts_per_subreddit,omitempty"`
}

// handleSyncInsights triggers an out-of-schedule insights sync.
// An empty body is allowed and falls back to the default subreddits.
// POST /api/v1/admin/insights/sync
func (s *Server) handleSyncInsights(w http.ResponseWriter, r *http.Request) {
	var req syncInsightsRequest
	if r.Body != nil {
		// Body is optional; decode errors on an empty body are ignored.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if len(req.Subreddits) == 0 {
		req.Subreddits = []string{"arduino", "esp32", "embedded", "stm32"}
	}
	if req.PostsPerSubreddit <= 0 {
		req.PostsPerSubreddit = 50
	}

	result, err := s.deps.SyncInsightsHandler.Handle(r.Context(), command.SyncInsightsCommand{
		Subreddits:        req.Subreddits,
		PostsPerSubreddit: req.PostsPerSubreddit,
		CorrelationID:     getRequestID(r.Context()),
	})
	if err != nil {
		s.respondError(w, r, "sync insights", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// respondError translates domain errors into HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrInvalidID),
		errors.Is(err, shared.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, shared.ErrExternalService),
		errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrStoreUnavailable):
		writeJSONError(w, http.StatusBadGateway, "upstream_error", "An upstream dependency failed")
		s.logger.Error("upstream failure",
			logger.String("op", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
	default:
		s.logger.Error("request failed",
			logger.String("op", op),
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// pathInt extracts an integer path parameter.
func pathInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(key))
	if err != nil || v <= 0 {
		return 0, errors.New("invalid path parameter: " + key)
	}
	return v, nil
}
