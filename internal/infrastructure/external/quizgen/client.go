// Package quizgen implements the lesson quiz generator client.
// Quizzes are produced by an external generation service; when the service
// is unconfigured or unavailable, the client degrades to bundled demo
// quizzes so the lesson page never renders without one.
package quizgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/embedpath/hardwarehub-backend/pkg/circuitbreaker"
	"github.com/embedpath/hardwarehub-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Question is a single multiple-choice question.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// Quiz is a generated quiz for a lesson.
type Quiz struct {
	LessonID  int        `json:"lesson_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`

	// Demo marks quizzes served from the bundled fallback set.
	Demo bool `json:"demo"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the quiz generator client.
type ClientConfig struct {
	// BaseURL is the generation service URL. Empty disables remote
	// generation and the client always serves demo quizzes.
	BaseURL string

	// APIKey authenticates against the generation service.
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client generates quizzes for lessons.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

// NewClient creates a new quiz generator client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		retrier: retry.QuizGenRetrier(),
		breaker: circuitbreaker.QuizGenBreaker(func(name string, from, to circuitbreaker.State) {
			config.Logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	}
}

// generateRequest is the wire request for the generation service.
type generateRequest struct {
	LessonID    int    `json:"lesson_id"`
	LessonTitle string `json:"lesson_title"`
	Tier        string `json:"tier"`
	Questions   int    `json:"questions"`
}

// Generate returns a quiz for the lesson. On any generation failure the
// demo fallback is returned; the error channel is reserved for context
// cancellation, so callers always get a usable quiz otherwise.
func (c *Client) Generate(ctx context.Context, lessonID int, lessonTitle, tier string) (*Quiz, error) {
	if c.config.BaseURL == "" {
		return demoQuiz(lessonID, lessonTitle), nil
	}

	quiz, err := c.generateRemote(ctx, lessonID, lessonTitle, tier)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("quiz generation failed, serving demo quiz",
			"lesson_id", lessonID, "error", err)
		return demoQuiz(lessonID, lessonTitle), nil
	}

	return quiz, nil
}

func (c *Client) generateRemote(ctx context.Context, lessonID int, lessonTitle, tier string) (*Quiz, error) {
	var quiz *Quiz
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			q, err := c.doGenerateRequest(ctx, generateRequest{
				LessonID:    lessonID,
				LessonTitle: lessonTitle,
				Tier:        tier,
				Questions:   5,
			})
			if err != nil {
				return err
			}
			quiz = q
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (c *Client) doGenerateRequest(ctx context.Context, reqBody generateRequest) (*Quiz, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/quizzes", bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("quizgen: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, retry.Permanent(fmt.Errorf("quizgen: status %d: %s", resp.StatusCode, string(body)))
	}

	var quiz Quiz
	if err := json.Unmarshal(body, &quiz); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal quiz: %w", err))
	}
	quiz.LessonID = reqBody.LessonID

	return &quiz, nil
}

// IsHealthy checks if the generation service is configured and reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	if c.config.BaseURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
