package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"trivia-quiz/internal/domain"
)

// QuestionSource fetches questions from the remote trivia provider.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, q domain.QuestionQuery) ([]domain.Question, error)
}

// Session is one quiz attempt: settings, the fetched questions, the progress
// cursor and the score. score <= cursor <= len(questions) always holds.
type Session struct {
	settings    domain.Settings
	source      QuestionSource
	leaderboard *Leaderboard
	now         func() time.Time

	questions []domain.Question
	cursor    int
	score     int
}

// NewSession validates settings and applies defaults.
func NewSession(settings domain.Settings, source QuestionSource, leaderboard *Leaderboard) (*Session, error) {
	return newSessionWithClock(settings, source, leaderboard, time.Now)
}

func newSessionWithClock(settings domain.Settings, source QuestionSource, leaderboard *Leaderboard, now func() time.Time) (*Session, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		settings:    settings,
		source:      source,
		leaderboard: leaderboard,
		now:         now,
	}, nil
}

func (s *Session) Settings() domain.Settings { return s.settings }
func (s *Session) Score() int                { return s.score }
func (s *Session) Cursor() int               { return s.cursor }
func (s *Session) Len() int                  { return len(s.questions) }

// Query is the request FetchQuestions sends to the source.
func (s *Session) Query() domain.QuestionQuery {
	return domain.QuestionQuery{
		Amount:     s.settings.QuestionCount,
		Category:   s.settings.Category,
		Difficulty: s.settings.Difficulty,
		Type:       domain.AnswerTypeMultiple,
	}
}

// FetchQuestions loads the question set and rewinds the cursor. An empty set is
// not an error; callers must check it.
func (s *Session) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.source.FetchQuestions(ctx, s.Query())
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	s.questions = questions
	s.cursor = 0
	return s.questions, nil
}

// CurrentQuestion returns the question under the cursor; false once the
// session is exhausted.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.cursor], true
}

// Advance moves to the next question and reports whether one remains.
func (s *Session) Advance() bool {
	s.cursor++
	return !s.IsComplete()
}

func (s *Session) IsComplete() bool {
	return s.cursor >= len(s.questions)
}

// RecordCorrectAnswer adds one point. The round's terminal state guarantees a
// single call per round.
func (s *Session) RecordCorrectAnswer() {
	s.score++
}

// ScorePercentage is round(score/questionCount*100), or 0 without questions.
func (s *Session) ScorePercentage() int {
	return percent(s.score, s.settings.QuestionCount)
}

// Complete finalizes the session: it records a leaderboard entry when the
// result qualifies and returns the summary to render. Persistence problems are
// logged and do not fail completion.
func (s *Session) Complete(ctx context.Context) domain.Summary {
	pct := s.ScorePercentage()
	summary := domain.Summary{
		PlayerName: s.settings.PlayerName,
		Score:      s.score,
		Total:      s.settings.QuestionCount,
		Percentage: pct,
	}
	if s.leaderboard == nil {
		summary.Leaderboard = []domain.LeaderboardEntry{}
		return summary
	}

	summary.NewHighScore = s.leaderboard.IsNewHighScore(ctx, pct)
	if summary.NewHighScore {
		_, err := s.leaderboard.Save(ctx, domain.LeaderboardEntry{
			Name:       s.settings.PlayerName,
			Score:      s.score,
			Total:      s.settings.QuestionCount,
			Percentage: pct,
			Difficulty: s.settings.Difficulty,
			Timestamp:  domain.FormatTimestamp(s.now()),
		})
		if err != nil {
			slog.ErrorContext(ctx, "session: save high score failed", "player", s.settings.PlayerName, "error", err)
		}
	}
	summary.Leaderboard = s.leaderboard.Load(ctx)
	return summary
}

// percent rounds n/total*100 half up.
func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}
