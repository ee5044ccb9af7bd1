package http

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
	"trivia-quiz/internal/telemetry"
)

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

type stubSource struct {
	questions []domain.Question
	err       error
}

func (s stubSource) FetchQuestions(context.Context, domain.QuestionQuery) ([]domain.Question, error) {
	return s.questions, s.err
}

func (s stubSource) Categories(context.Context) ([]domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Category{{ID: 9, Name: "General Knowledge"}}, nil
}

func newTestServer(t *testing.T, src stubSource) (*httptest.Server, *app.Leaderboard, *prometheus.Registry) {
	t.Helper()
	return newTestServerWithStore(t, src, memory.NewSlotStore())
}

func newTestServerWithStore(t *testing.T, src stubSource, store app.SlotStore) (*httptest.Server, *app.Leaderboard, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lb := app.NewLeaderboard(store, "")
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	h := NewWSHandler(Config{
		NewGame: func() *app.Game {
			return app.NewGame(app.GameConfig{
				Source:        src,
				Leaderboard:   lb,
				NewTickerFunc: func(time.Duration) app.Ticker { return idleTicker{} },
				Rand:          rand.New(rand.NewSource(5)),
			})
		},
		Leaderboard: lb,
		Categories:  src,
		Wrap:        metrics.Presenter,
		OnError:     metrics.ObserveFailure,
	})

	server := httptest.NewServer(NewEngine(h, reg))
	t.Cleanup(server.Close)
	return server, lb, reg
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) json.RawMessage {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, expect, msg.Type, "payload: %s", msg.Payload)
	return msg.Payload
}

func sampleQuestion() domain.Question {
	return domain.Question{
		Type:             "multiple",
		Difficulty:       "easy",
		Category:         "Science &amp; Nature",
		Prompt:           "What is H&lt;sub&gt;2&lt;/sub&gt;O?",
		CorrectAnswer:    "Water",
		IncorrectAnswers: []string{"Salt", "Sand", "Air"},
	}
}

func TestWebSocketSessionFlow(t *testing.T) {
	server, lb, reg := newTestServer(t, stubSource{questions: []domain.Question{sampleQuestion()}})
	conn := dial(t, server, "name=Alice&amount=1&difficulty=easy")

	var session sessionPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "session"), &session))
	require.NotEmpty(t, session.ID)
	require.Equal(t, "Alice", session.PlayerName)
	require.Equal(t, 1, session.QuestionCount)

	readNext(t, conn, "loading")

	var view domain.RoundView
	require.NoError(t, json.Unmarshal(readNext(t, conn, "question"), &view))
	require.Equal(t, "Science & Nature", view.Category)
	require.Equal(t, "What is H<sub>2</sub>O?", view.Prompt)
	require.Equal(t, 1, view.Total)
	require.Len(t, view.Answers, 4)

	// Garbage first: it must be reported and must not resolve the round.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "shout"}))
	readNext(t, conn, "error")

	index := 0
	for i, a := range view.Answers {
		if a == "Water" {
			index = i + 1
		}
	}
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"index": index},
	}))

	var outcome domain.RoundOutcome
	require.NoError(t, json.Unmarshal(readNext(t, conn, "outcome"), &outcome))
	require.Equal(t, domain.OutcomeCorrect, outcome.Kind)

	var summary domain.Summary
	require.NoError(t, json.Unmarshal(readNext(t, conn, "summary"), &summary))
	require.Equal(t, 1, summary.Score)
	require.Equal(t, 100, summary.Percentage)
	require.True(t, summary.NewHighScore)

	readNext(t, conn, "ended")

	entries := lb.Load(context.Background())
	require.Len(t, entries, 1)
	require.Equal(t, "Alice", entries[0].Name)

	resp, err := http.Get(server.URL + "/api/scores")
	require.NoError(t, err)
	defer resp.Body.Close()
	var scores []domain.LeaderboardEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scores))
	require.Equal(t, entries, scores)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `trivia_rounds_total{outcome="correct"} 1`)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestWebSocketSourceError(t *testing.T) {
	server, _, _ := newTestServer(t, stubSource{err: &domain.SourceError{Code: 1}})
	conn := dial(t, server, "name=Bob&amount=50&category=13&difficulty=hard")

	readNext(t, conn, "session")
	readNext(t, conn, "loading")

	var payload errorPayload
	require.NoError(t, json.Unmarshal(readNext(t, conn, "error"), &payload))
	require.Contains(t, payload.Message, "response_code=1")
}

func TestWebSocketRejectsBadSettings(t *testing.T) {
	server, _, _ := newTestServer(t, stubSource{})

	tests := map[string]string{
		"zero questions":     "amount=0",
		"not a number":       "amount=ten",
		"unknown difficulty": "difficulty=expert",
	}
	for name, query := range tests {
		query := query
		t.Run(name, func(t *testing.T) {
			u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
			_, resp, err := websocket.DefaultDialer.Dial(u, nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestWebSocketOneSessionAtATime(t *testing.T) {
	server, _, _ := newTestServer(t, stubSource{questions: []domain.Question{sampleQuestion()}})
	first := dial(t, server, "name=Alice&amount=1")
	readNext(t, first, "session")
	readNext(t, first, "loading")
	readNext(t, first, "question")

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=Bob&amount=1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Leaving frees the slot.
	first.Close()
	require.Eventually(t, func() bool {
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

// slowStore delays writes so a session spends time saving its result.
type slowStore struct {
	app.SlotStore
	delay time.Duration
}

func (s slowStore) Write(ctx context.Context, key string, value []byte) error {
	time.Sleep(s.delay)
	return s.SlotStore.Write(ctx, key, value)
}

func TestWebSocketLateAnswerReleasesSession(t *testing.T) {
	store := slowStore{SlotStore: memory.NewSlotStore(), delay: 300 * time.Millisecond}
	server, _, _ := newTestServerWithStore(t, stubSource{questions: []domain.Question{sampleQuestion()}}, store)
	conn := dial(t, server, "name=Alice&amount=1")

	readNext(t, conn, "session")
	readNext(t, conn, "loading")
	readNext(t, conn, "question")

	answer := map[string]any{"type": "answer", "payload": map[string]any{"index": 1}}
	require.NoError(t, conn.WriteJSON(answer))
	readNext(t, conn, "outcome")
	// A second click lands while the high score is being saved.
	require.NoError(t, conn.WriteJSON(answer))
	readNext(t, conn, "summary")
	readNext(t, conn, "ended")

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?name=Bob&amount=1"
	require.Eventually(t, func() bool {
		next, resp, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return false
		}
		next.Close()
		return true
	}, 3*time.Second, 20*time.Millisecond, "the finished session must release the slot")
}

func TestCategoriesEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, stubSource{})
	resp, err := http.Get(server.URL + "/api/categories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cats []domain.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cats))
	require.Equal(t, []domain.Category{{ID: 9, Name: "General Knowledge"}}, cats)

	failing, _, _ := newTestServer(t, stubSource{err: &domain.TransportError{StatusCode: 503}})
	resp, err = http.Get(failing.URL + "/api/categories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	server, _, _ := newTestServer(t, stubSource{})
	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, "ok", string(body))
}
