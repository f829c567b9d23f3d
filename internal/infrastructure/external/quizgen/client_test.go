package quizgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_NoBaseURL_ServesDemo(t *testing.T) {
	client := NewClient(DefaultClientConfig("", ""))

	quiz, err := client.Generate(context.Background(), 42, "Blink an LED", "beginner")
	require.NoError(t, err)
	require.NotNil(t, quiz)

	assert.True(t, quiz.Demo)
	assert.Equal(t, 42, quiz.LessonID)
	assert.NotEmpty(t, quiz.Questions)
	for _, q := range quiz.Questions {
		assert.NotEmpty(t, q.Prompt)
		assert.GreaterOrEqual(t, q.AnswerIndex, 0)
		assert.Less(t, q.AnswerIndex, len(q.Options))
	}
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/quizzes", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 7, req.LessonID)
		assert.Equal(t, "intermediate", req.Tier)

		json.NewEncoder(w).Encode(Quiz{
			Title: "I2C basics",
			Questions: []Question{
				{Prompt: "How many wires does I2C need?", Options: []string{"2", "4"}, AnswerIndex: 0},
			},
		})
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, "test-key"))

	quiz, err := client.Generate(context.Background(), 7, "I2C basics", "intermediate")
	require.NoError(t, err)

	assert.False(t, quiz.Demo)
	assert.Equal(t, 7, quiz.LessonID)
	assert.Equal(t, "I2C basics", quiz.Title)
	assert.Len(t, quiz.Questions, 1)
}

func TestGenerate_RemoteFailure_FallsBackToDemo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, "test-key"))

	quiz, err := client.Generate(context.Background(), 3, "PWM", "beginner")
	require.NoError(t, err)

	assert.True(t, quiz.Demo)
	assert.Equal(t, 3, quiz.LessonID)
}

func TestIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, NewClient(DefaultClientConfig(server.URL, "")).IsHealthy(context.Background()))
	assert.False(t, NewClient(DefaultClientConfig("", "")).IsHealthy(context.Background()))
}
