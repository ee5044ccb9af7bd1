package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

const (
	defaultQuestionCount = 10
	defaultDifficulty    = "easy"
)

// CategoryLister lists the categories offered on the form.
type CategoryLister interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

type Config struct {
	In         io.Reader
	Out        io.Writer
	Game       *app.Game
	Categories CategoryLister
	// Wrap decorates the presenter, e.g. with metrics. Optional.
	Wrap func(app.Presenter) app.Presenter
	// OnError observes failed attempts. Optional.
	OnError func(error)
}

// Shell runs the interactive loop: form, quiz, results, and the retry or
// replay prompt.
type Shell struct {
	in         *lineReader
	out        io.Writer
	game       *app.Game
	categories CategoryLister
	presenter  *Presenter
	wrap       func(app.Presenter) app.Presenter
	onError    func(error)
}

func NewShell(c Config) *Shell {
	s := &Shell{
		in:         newLineReader(c.In),
		out:        c.Out,
		game:       c.Game,
		categories: c.Categories,
		presenter:  NewPresenter(c.Out),
		wrap:       c.Wrap,
		onError:    c.OnError,
	}
	if s.wrap == nil {
		s.wrap = func(p app.Presenter) app.Presenter { return p }
	}
	if s.onError == nil {
		s.onError = func(error) {}
	}
	return s
}

// Run plays sessions until the player declines to continue, input ends or ctx
// is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	for {
		settings, err := s.form(ctx)
		if err != nil {
			return ignoreEnd(err)
		}

		_, err = s.play(ctx, settings)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.onError(err)
			slog.WarnContext(ctx, "terminal: session failed", "error", err)
			s.presenter.Failed(err)
			again, err := s.confirm(ctx, "Try again?", true)
			if err != nil || !again {
				return ignoreEnd(err)
			}
			continue
		}

		again, err := s.confirm(ctx, "Play again?", false)
		if err != nil || !again {
			return ignoreEnd(err)
		}
	}
}

func (s *Shell) play(ctx context.Context, settings domain.Settings) (domain.Summary, error) {
	inputs, stop := s.in.selections(ctx)
	defer stop()
	return s.game.Play(ctx, settings, s.wrap(s.presenter), inputs)
}

// form collects the settings of one attempt, re-prompting on invalid values.
func (s *Shell) form(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Trivia Quiz")

	name, err := s.ask(ctx, fmt.Sprintf("Player name [%s]: ", domain.DefaultPlayerName))
	if err != nil {
		return settings, err
	}
	settings.PlayerName = name

	if settings.Category, err = s.askCategory(ctx); err != nil {
		return settings, err
	}

	for {
		raw, err := s.ask(ctx, fmt.Sprintf("Difficulty (easy, medium, hard, any) [%s]: ", defaultDifficulty))
		if err != nil {
			return settings, err
		}
		d := strings.ToLower(strings.TrimSpace(raw))
		switch d {
		case "":
			d = defaultDifficulty
		case "any":
			d = ""
		}
		probe := domain.Settings{Difficulty: d, QuestionCount: domain.MinQuestions}
		if err := probe.Validate(); err != nil {
			fmt.Fprintln(s.out, domain.UserMessage(err))
			continue
		}
		settings.Difficulty = d
		break
	}

	for {
		raw, err := s.ask(ctx, fmt.Sprintf("Number of questions [%d]: ", defaultQuestionCount))
		if err != nil {
			return settings, err
		}
		if strings.TrimSpace(raw) == "" {
			raw = strconv.Itoa(defaultQuestionCount)
		}
		n, err := domain.ParseQuestionCount(raw)
		if err != nil {
			fmt.Fprintln(s.out, domain.UserMessage(err))
			continue
		}
		settings.QuestionCount = n
		return settings, nil
	}
}

func (s *Shell) askCategory(ctx context.Context) (string, error) {
	if s.categories == nil {
		return "", nil
	}
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "terminal: categories unavailable", "error", err)
		return "", nil
	}
	if len(cats) == 0 {
		return "", nil
	}

	fmt.Fprintln(s.out, "Categories:")
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		id := strconv.Itoa(c.ID)
		known[id] = true
		fmt.Fprintf(s.out, "  %3s  %s\n", id, c.Name)
	}
	for {
		raw, err := s.ask(ctx, "Category id [any]: ")
		if err != nil {
			return "", err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.EqualFold(raw, "any") {
			return "", nil
		}
		if known[raw] {
			return raw, nil
		}
		fmt.Fprintln(s.out, "Unknown category.")
	}
}

func (s *Shell) confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	raw, err := s.ask(ctx, fmt.Sprintf("%s %s: ", question, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Shell) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	return s.in.next(ctx)
}

func ignoreEnd(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
