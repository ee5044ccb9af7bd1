package app_test

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz/internal/domain"
)

// fakeTicker never ticks on its own; tests push ticks into ch.
type fakeTicker struct {
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

func newFakeTicker(buffered int) *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time, buffered)}
}

// preloaded returns a ticker holding n pending ticks.
func preloaded(n int) *fakeTicker {
	t := newFakeTicker(n)
	for i := 0; i < n; i++ {
		t.ch <- time.Time{}
	}
	return t
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeSource struct {
	questions []domain.Question
	err       error

	calls int
	last  domain.QuestionQuery
}

func (s *fakeSource) FetchQuestions(_ context.Context, q domain.QuestionQuery) ([]domain.Question, error) {
	s.calls++
	s.last = q
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

type recordingPresenter struct {
	mu        sync.Mutex
	loading   int
	views     []domain.RoundView
	ticks     []int
	warnings  []bool
	outcomes  []domain.RoundOutcome
	summaries []domain.Summary
	ended     int
}

func (p *recordingPresenter) Loading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading++
}

func (p *recordingPresenter) RoundStarted(v domain.RoundView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
}

func (p *recordingPresenter) TimerTicked(remaining int, warning bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = append(p.ticks, remaining)
	p.warnings = append(p.warnings, warning)
}

func (p *recordingPresenter) RoundResolved(o domain.RoundOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, o)
}

func (p *recordingPresenter) SessionCompleted(s domain.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, s)
}

func (p *recordingPresenter) SessionEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended++
}

func question(prompt, correct string) domain.Question {
	return domain.Question{
		Type:             "multiple",
		Difficulty:       "easy",
		Category:         "General Knowledge",
		Prompt:           prompt,
		CorrectAnswer:    correct,
		IncorrectAnswers: []string{"Wrong A", "Wrong B", "Wrong C"},
	}
}

func questions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = question("Question?", "Right")
	}
	return qs
}

func seeded() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
