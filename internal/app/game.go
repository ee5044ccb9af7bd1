package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"trivia-quiz/internal/domain"
)

const (
	// DefaultRevealHold is how long a resolved round stays on screen.
	DefaultRevealHold = 1500 * time.Millisecond
	// DefaultExitTransition follows the reveal hold before the next round.
	DefaultExitTransition = 450 * time.Millisecond
)

// Presenter is the boundary to the presentation shell. The game only emits
// data; rendering is entirely the shell's concern.
type Presenter interface {
	Loading()
	RoundStarted(view domain.RoundView)
	TimerTicked(remaining int, warning bool)
	RoundResolved(outcome domain.RoundOutcome)
	SessionCompleted(summary domain.Summary)
	SessionEnded()
}

type GameConfig struct {
	Source         QuestionSource
	Leaderboard    *Leaderboard
	TimeLimit      int
	RevealHold     time.Duration
	ExitTransition time.Duration
	NewTickerFunc  func(d time.Duration) Ticker
	Rand           *rand.Rand
	Now            func() time.Time
}

// Game runs quiz sessions round by round. Sessions are strictly sequential;
// a Game must not Play concurrently.
type Game struct {
	source         QuestionSource
	leaderboard    *Leaderboard
	timeLimit      int
	revealHold     time.Duration
	exitTransition time.Duration
	newTicker      func(d time.Duration) Ticker
	rnd            *rand.Rand
	now            func() time.Time
}

func NewGame(c GameConfig) *Game {
	g := &Game{
		source:         c.Source,
		leaderboard:    c.Leaderboard,
		timeLimit:      c.TimeLimit,
		revealHold:     c.RevealHold,
		exitTransition: c.ExitTransition,
		newTicker:      c.NewTickerFunc,
		rnd:            c.Rand,
		now:            c.Now,
	}
	if g.timeLimit <= 0 {
		g.timeLimit = DefaultTimeLimit
	}
	if g.newTicker == nil {
		g.newTicker = NewTicker
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Play runs one complete session. Validation, transport and source errors end
// the attempt before any round starts; the shell decides whether to retry.
// inputs carries the player's selections for whichever round is active.
func (g *Game) Play(ctx context.Context, settings domain.Settings, p Presenter, inputs <-chan domain.Selection) (domain.Summary, error) {
	session, err := newSessionWithClock(settings, g.source, g.leaderboard, g.now)
	if err != nil {
		return domain.Summary{}, err
	}

	p.Loading()
	questions, err := session.FetchQuestions(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return domain.Summary{}, domain.NoQuestions()
	}
	slog.InfoContext(ctx, "game: session started",
		"player", session.Settings().PlayerName,
		"questions", len(questions),
		"category", session.Settings().Category,
		"difficulty", session.Settings().Difficulty,
	)

	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}

		round := NewRound(session.Cursor(), q, g.timeLimit, g.rnd)
		p.RoundStarted(round.View(session.Settings().QuestionCount, session.Score()))

		outcome, err := round.Run(ctx, g.newTicker(time.Second), inputs, p.TimerTicked)
		if err != nil {
			return domain.Summary{}, err
		}
		if outcome.Kind == domain.OutcomeCorrect {
			session.RecordCorrectAnswer()
		}
		p.RoundResolved(outcome)

		if err := g.hold(ctx, inputs); err != nil {
			return domain.Summary{}, err
		}
		session.Advance()
	}

	summary := session.Complete(ctx)
	slog.InfoContext(ctx, "game: session completed",
		"player", summary.PlayerName,
		"score", summary.Score,
		"total", summary.Total,
		"percentage", summary.Percentage,
		"new_high_score", summary.NewHighScore,
	)
	p.SessionCompleted(summary)
	p.SessionEnded()
	return summary, nil
}

// hold waits out the reveal and exit delays, discarding selections that
// arrive for the already resolved round.
func (g *Game) hold(ctx context.Context, inputs <-chan domain.Selection) error {
	for _, d := range []time.Duration{g.revealHold, g.exitTransition} {
		if err := wait(ctx, d, inputs); err != nil {
			return err
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration, inputs <-chan domain.Selection) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		case _, ok := <-inputs:
			if !ok {
				inputs = nil
			}
		}
	}
}
