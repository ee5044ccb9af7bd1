package app

import (
	"context"
	"math/rand"
	"time"

	"trivia-quiz/internal/domain"
)

const (
	// DefaultTimeLimit is the countdown length of a round, in seconds.
	DefaultTimeLimit = 30
	// WarningThreshold is the remaining time at which the shell switches to its warning state.
	WarningThreshold = 10
)

// Ticker delivers the one-second countdown ticks of a round.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTicker wraps time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

type timeTicker struct {
	t *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

// Round presents one question and resolves exactly once: on the first valid
// selection or when the countdown reaches zero. Once resolved, every further
// selection or tick is ignored.
type Round struct {
	index         int
	category      string
	difficulty    string
	prompt        string
	correct       string
	answers       []string
	timeRemaining int

	answered bool
	outcome  domain.RoundOutcome
}

// NewRound decodes the question text and shuffles its answers.
func NewRound(index int, q domain.Question, timeLimit int, rnd *rand.Rand) *Round {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	r := &Round{
		index:         index,
		category:      decodeText(q.Category),
		difficulty:    q.Difficulty,
		prompt:        decodeText(q.Prompt),
		correct:       decodeText(q.CorrectAnswer),
		timeRemaining: timeLimit,
	}

	r.answers = make([]string, 0, len(q.IncorrectAnswers)+1)
	for _, a := range q.IncorrectAnswers {
		r.answers = append(r.answers, decodeText(a))
	}
	r.answers = append(r.answers, r.correct)
	shuffle(r.answers, rnd)
	return r
}

// Answers returns the presentation order of the answers.
func (r *Round) Answers() []string {
	out := make([]string, len(r.answers))
	copy(out, r.answers)
	return out
}

func (r *Round) Prompt() string        { return r.prompt }
func (r *Round) CorrectAnswer() string { return r.correct }
func (r *Round) TimeRemaining() int    { return r.timeRemaining }
func (r *Round) Resolved() bool        { return r.answered }

// Outcome returns the resolution, if any.
func (r *Round) Outcome() (domain.RoundOutcome, bool) {
	return r.outcome, r.answered
}

// View builds the render request for the shell.
func (r *Round) View(total, score int) domain.RoundView {
	return domain.RoundView{
		Index:         r.index,
		Total:         total,
		Progress:      percent(r.index+1, total),
		Category:      r.category,
		Difficulty:    r.difficulty,
		Prompt:        r.prompt,
		Answers:       r.Answers(),
		Score:         score,
		TimeRemaining: r.timeRemaining,
	}
}

// Select resolves the round with the player's pick. It reports false when the
// round was already resolved or the selection names no presented answer.
func (r *Round) Select(sel domain.Selection) (domain.RoundOutcome, bool) {
	if r.answered {
		return domain.RoundOutcome{}, false
	}
	chosen, ok := r.lookup(sel)
	if !ok {
		return domain.RoundOutcome{}, false
	}

	kind := domain.OutcomeWrong
	if normalizeAnswer(chosen) == normalizeAnswer(r.correct) {
		kind = domain.OutcomeCorrect
	}
	r.resolve(kind, chosen)
	return r.outcome, true
}

// Tick advances the countdown by one second. At zero the round resolves as a
// timeout. Ticks after resolution change nothing.
func (r *Round) Tick() (remaining int, resolved bool) {
	if r.answered {
		return r.timeRemaining, false
	}
	if r.timeRemaining > 0 {
		r.timeRemaining--
	}
	if r.timeRemaining == 0 {
		r.resolve(domain.OutcomeTimeout, "")
		return 0, true
	}
	return r.timeRemaining, false
}

// Run drives the round from ticker and inputs until it resolves or ctx ends.
// The ticker is stopped before the outcome is returned. onTick may be nil.
func (r *Round) Run(ctx context.Context, ticker Ticker, inputs <-chan domain.Selection, onTick func(remaining int, warning bool)) (domain.RoundOutcome, error) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.RoundOutcome{}, ctx.Err()

		case <-ticker.C():
			remaining, resolved := r.Tick()
			if resolved {
				return r.outcome, nil
			}
			if onTick != nil {
				onTick(remaining, remaining <= WarningThreshold)
			}

		case sel, ok := <-inputs:
			if !ok {
				// No more input; only the countdown can resolve the round.
				inputs = nil
				continue
			}
			if outcome, resolved := r.Select(sel); resolved {
				return outcome, nil
			}
		}
	}
}

func (r *Round) lookup(sel domain.Selection) (string, bool) {
	if sel.Index > 0 {
		if sel.Index > len(r.answers) {
			return "", false
		}
		return r.answers[sel.Index-1], true
	}
	want := normalizeAnswer(sel.Answer)
	if want == "" {
		return "", false
	}
	for _, a := range r.answers {
		if normalizeAnswer(a) == want {
			return a, true
		}
	}
	return "", false
}

func (r *Round) resolve(kind domain.OutcomeKind, selected string) {
	r.answered = true
	r.outcome = domain.RoundOutcome{
		Index:         r.index,
		Kind:          kind,
		Selected:      selected,
		CorrectAnswer: r.correct,
		TimeRemaining: r.timeRemaining,
	}
}
