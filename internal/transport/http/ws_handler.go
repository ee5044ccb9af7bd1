package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// CategoryLister lists the categories a client may pick from.
type CategoryLister interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

type Config struct {
	// NewGame builds the runner for one connection.
	NewGame     func() *app.Game
	Leaderboard *app.Leaderboard
	Categories  CategoryLister
	// Wrap decorates each connection's presenter. Optional.
	Wrap func(app.Presenter) app.Presenter
	// OnError observes failed sessions. Optional.
	OnError func(error)
}

// WSHandler drives one quiz session per websocket connection. Only one
// session runs at a time since all of them write the same leaderboard.
type WSHandler struct {
	newGame     func() *app.Game
	leaderboard *app.Leaderboard
	categories  CategoryLister
	wrap        func(app.Presenter) app.Presenter
	onError     func(error)
	upgrader    websocket.Upgrader

	playing sync.Mutex
}

func NewWSHandler(c Config) *WSHandler {
	h := &WSHandler{
		newGame:     c.NewGame,
		leaderboard: c.Leaderboard,
		categories:  c.Categories,
		wrap:        c.Wrap,
		onError:     c.OnError,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if h.wrap == nil {
		h.wrap = func(p app.Presenter) app.Presenter { return p }
	}
	if h.onError == nil {
		h.onError = func(error) {}
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type sessionPayload struct {
	ID            string `json:"id"`
	PlayerName    string `json:"playerName"`
	Category      string `json:"category"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
}

type tickPayload struct {
	Remaining int  `json:"remaining"`
	Warning   bool `json:"warning"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS validates the settings in the query, upgrades the connection and
// plays a single session over it.
func (h *WSHandler) ServeWS(c *gin.Context) {
	settings, err := settingsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.UserMessage(err)})
		return
	}
	if !h.playing.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a quiz session is already running"})
		return
	}
	defer h.playing.Unlock()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c, "ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})
	gameDone := make(chan struct{})
	inputs := make(chan domain.Selection)

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.WarnContext(ctx, "ws: write failed", "error", err)
				cancel()
				// Keep draining so the game never blocks on a dead connection.
				for range send {
				}
				return
			}
		}
	}()

	p := &wsPresenter{send: send, done: ctx.Done()}

	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return
			}
			switch inbound.Type {
			case "answer":
				var sel domain.Selection
				if err := json.Unmarshal(inbound.Payload, &sel); err != nil {
					p.emit("error", errorPayload{Message: "invalid answer payload"})
					continue
				}
				select {
				case inputs <- sel:
				case <-gameDone:
					// Late answers after the last round have no reader.
				case <-ctx.Done():
					return
				}
			default:
				p.emit("error", errorPayload{Message: "unsupported message type"})
			}
		}
	}()

	id := uuid.NewString()
	slog.InfoContext(ctx, "ws: session opened", "session", id, "player", settings.PlayerName)
	p.emit("session", sessionPayload{
		ID:            id,
		PlayerName:    settings.PlayerName,
		Category:      settings.Category,
		Difficulty:    settings.Difficulty,
		QuestionCount: settings.QuestionCount,
	})

	_, err = h.newGame().Play(ctx, settings, h.wrap(p), inputs)
	close(gameDone)
	if err != nil && ctx.Err() == nil {
		h.onError(err)
		slog.WarnContext(ctx, "ws: session failed", "session", id, "error", err)
		p.emit("error", errorPayload{Message: domain.UserMessage(err)})
	}

	p.close()
	<-writerDone
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	<-readerDone
	slog.InfoContext(ctx, "ws: session closed", "session", id)
}

func settingsFromQuery(c *gin.Context) (domain.Settings, error) {
	count, err := domain.ParseQuestionCount(c.DefaultQuery("amount", "10"))
	if err != nil {
		return domain.Settings{}, err
	}
	settings := domain.Settings{
		PlayerName:    c.Query("name"),
		Category:      c.Query("category"),
		Difficulty:    c.Query("difficulty"),
		QuestionCount: count,
	}.Normalize()
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// wsPresenter turns game events into outbound messages. Messages emitted
// after close are dropped.
type wsPresenter struct {
	send chan<- outboundMessage
	done <-chan struct{}

	mu     sync.Mutex
	closed bool
}

func (p *wsPresenter) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

func (p *wsPresenter) emit(typ string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.send <- outboundMessage{Type: typ, Payload: payload}:
	case <-p.done:
	}
}

func (p *wsPresenter) Loading() { p.emit("loading", struct{}{}) }

func (p *wsPresenter) RoundStarted(v domain.RoundView) { p.emit("question", v) }

func (p *wsPresenter) TimerTicked(remaining int, warning bool) {
	p.emit("tick", tickPayload{Remaining: remaining, Warning: warning})
}

func (p *wsPresenter) RoundResolved(o domain.RoundOutcome) { p.emit("outcome", o) }

func (p *wsPresenter) SessionCompleted(s domain.Summary) { p.emit("summary", s) }

func (p *wsPresenter) SessionEnded() { p.emit("ended", struct{}{}) }
