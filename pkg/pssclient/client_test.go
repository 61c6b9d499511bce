package pssclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/config"
	"stress-guru-go/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": status, "message": message, "data": data})
}

func TestNextQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/pss/next-question", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		var body struct {
			CurrentResponses []model.PSSResponse `json:"current_responses"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []model.PSSResponse{{Index: 0, Label: "never"}}, body.CurrentResponses)

		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{"question": "Q?", "question_index": 4, "complete": false})
	}))
	defer srv.Close()

	c := NewClient(config.PSSConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 2}).WithToken("abc")
	next, err := c.NextQuestion(context.Background(), []model.PSSResponse{{Index: 0, Label: "never"}})
	require.NoError(t, err)
	require.NotNil(t, next.QuestionIndex)
	assert.Equal(t, 4, *next.QuestionIndex)
	assert.Equal(t, "Q?", next.Question)
}

func TestNextQuestion_SendsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["current_responses"]))
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{"complete": true})
	}))
	defer srv.Close()

	next, err := NewClient(config.PSSConfig{BaseURL: srv.URL}).NextQuestion(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, next.Complete)
}

func TestAssessAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/pss/assess":
			assert.Equal(t, http.MethodPost, r.Method)
			writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
				"score": 16.7, "stress_level": "moderate stress", "confidence": 0.75, "questions_answered": 3,
			})
		case "/api/v1/pss/history":
			assert.Equal(t, http.MethodGet, r.Method)
			writeEnvelope(w, http.StatusOK, "success", []map[string]interface{}{
				{"scheme": "pss", "score": 20, "stress_level": "moderate stress", "timestamp": "2024-03-01T09:30:00Z"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(config.PSSConfig{BaseURL: srv.URL}).WithToken("abc")
	res, err := c.Assess(context.Background(), []model.PSSResponse{{Index: 0, Label: "never"}})
	require.NoError(t, err)
	assert.Equal(t, 16.7, res.Score)
	require.NotNil(t, res.Confidence)
	assert.Equal(t, 0.75, *res.Confidence)

	history, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2024, history[0].CreatedAt.Year())
}

func TestAssess_WithoutConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"score": 20, "stress_level": "moderate stress", "questions_answered": 3,
		})
	}))
	defer srv.Close()

	res, err := NewClient(config.PSSConfig{BaseURL: srv.URL}).Assess(context.Background(), []model.PSSResponse{{Index: 0, Label: "never"}})
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Score)
	assert.Nil(t, res.Confidence)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, "Invalid response value: always", nil)
	}))
	defer srv.Close()

	_, err := NewClient(config.PSSConfig{BaseURL: srv.URL}).Assess(context.Background(), nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.Equal(t, "Invalid response value: always", statusErr.Message)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(config.PSSConfig{BaseURL: url}).History(context.Background())
	assert.Error(t, err)
}
