package terminal

import (
	"fmt"
	"io"
	"strings"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

const progressWidth = 20

// Presenter renders game events as plain text.
type Presenter struct {
	out io.Writer
}

var _ app.Presenter = (*Presenter)(nil)

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out}
}

func (p *Presenter) Loading() {
	fmt.Fprintln(p.out, "Loading Questions...")
}

func (p *Presenter) RoundStarted(v domain.RoundView) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Question %d/%d  %s %d%%\n", v.Index+1, v.Total, progressBar(v.Progress), v.Progress)
	fmt.Fprintf(p.out, "%s | %s | Score: %d\n", v.Category, difficultyLabel(v.Difficulty), v.Score)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, v.Prompt)
	for i, a := range v.Answers {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, a)
	}
	fmt.Fprintf(p.out, "Press 1-%d or type the answer, then Enter.\n", len(v.Answers))
	fmt.Fprintf(p.out, "Time left: %2ds", v.TimeRemaining)
}

func (p *Presenter) TimerTicked(remaining int, warning bool) {
	marker := ""
	if warning {
		marker = " !"
	}
	fmt.Fprintf(p.out, "\rTime left: %2ds%s", remaining, marker)
}

func (p *Presenter) RoundResolved(o domain.RoundOutcome) {
	fmt.Fprintln(p.out)
	switch o.Kind {
	case domain.OutcomeCorrect:
		fmt.Fprintf(p.out, "Correct! %q\n", o.Selected)
	case domain.OutcomeWrong:
		fmt.Fprintf(p.out, "Wrong. You picked %q, the answer was %q.\n", o.Selected, o.CorrectAnswer)
	case domain.OutcomeTimeout:
		fmt.Fprintf(p.out, "TIME'S UP! The answer was %q.\n", o.CorrectAnswer)
	}
}

func (p *Presenter) SessionCompleted(s domain.Summary) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Quiz Complete!")
	fmt.Fprintf(p.out, "Well done, %s!\n", s.PlayerName)
	fmt.Fprintf(p.out, "Score: %d / %d (%d%%)\n", s.Score, s.Total, s.Percentage)
	if s.NewHighScore {
		fmt.Fprintln(p.out, "New High Score!")
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "High Scores")
	WriteLeaderboard(p.out, s.Leaderboard)
}

// SessionEnded needs no output; the shell prompts for the next step itself.
func (p *Presenter) SessionEnded() {}

// Failed renders the error screen for err.
func (p *Presenter) Failed(err error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Oops! Something went wrong")
	fmt.Fprintln(p.out, domain.UserMessage(err))
}

// WriteLeaderboard prints a ranked list, one entry per line.
func WriteLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  No high scores yet.")
		return
	}
	for i, e := range entries {
		name := e.Name
		if name == "" {
			name = domain.DefaultPlayerName
		}
		meta := fmt.Sprintf("%d/%d", e.Score, e.Total)
		if e.Difficulty != "" {
			meta += " - " + e.Difficulty
		}
		fmt.Fprintf(w, "  #%-2d %-20s %3d%%  (%s)\n", i+1, name, e.Percentage, meta)
	}
}

func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * progressWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled) + "]"
}

func difficultyLabel(d string) string {
	if d == "" {
		return "any difficulty"
	}
	return d
}
