package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPlayerName is used when the player leaves the name blank.
	DefaultPlayerName = "Player"
	// MinQuestions and MaxQuestions bound Settings.QuestionCount.
	MinQuestions = 1
	MaxQuestions = 50
	// AnswerTypeMultiple is the only answer format requested from the source.
	AnswerTypeMultiple = "multiple"
)

// Difficulties accepted by the source. An empty difficulty means any.
var Difficulties = []string{"easy", "medium", "hard"}

// Settings is the player-chosen configuration of one quiz attempt.
type Settings struct {
	PlayerName    string
	Category      string
	Difficulty    string
	QuestionCount int
}

// Normalize trims free-text fields and applies the default player name.
func (s Settings) Normalize() Settings {
	s.PlayerName = strings.TrimSpace(s.PlayerName)
	if s.PlayerName == "" {
		s.PlayerName = DefaultPlayerName
	}
	s.Category = strings.TrimSpace(s.Category)
	s.Difficulty = strings.ToLower(strings.TrimSpace(s.Difficulty))
	return s
}

// Validate checks the settings before any question is fetched.
func (s Settings) Validate() error {
	if s.QuestionCount < MinQuestions {
		return &ValidationError{Field: "questionCount", Reason: "Minimum number of questions is 1."}
	}
	if s.QuestionCount > MaxQuestions {
		return &ValidationError{Field: "questionCount", Reason: "Maximum number of questions is 50."}
	}
	if s.Difficulty != "" && !isDifficulty(s.Difficulty) {
		return &ValidationError{Field: "difficulty", Reason: "Difficulty must be easy, medium or hard."}
	}
	return nil
}

// ParseQuestionCount reads a question count typed by the player.
func ParseQuestionCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "questionCount", Reason: "Please enter the number of questions."}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "questionCount", Reason: "Number of questions must be a number."}
	}
	s := Settings{QuestionCount: n}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return n, nil
}

func isDifficulty(d string) bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// QuestionQuery is the request sent to the question source.
type QuestionQuery struct {
	Amount     int
	Category   string // omitted when empty
	Difficulty string // omitted when empty
	Type       string
}

// Question is one multiple-choice record as delivered by the source.
// Text fields may carry HTML entities.
type Question struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Category is a question category offered by the source.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LeaderboardEntry is one persisted result of a completed session.
type LeaderboardEntry struct {
	Name       string `json:"name" yaml:"name"`
	Score      int    `json:"score" yaml:"score"`
	Total      int    `json:"total" yaml:"total"`
	Percentage int    `json:"percentage" yaml:"percentage"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
	Timestamp  string `json:"date" yaml:"date"`
}

// TimestampLayout sorts lexicographically in chronological order; keep it that way.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// OutcomeKind is how a round was resolved.
type OutcomeKind string

const (
	OutcomeCorrect OutcomeKind = "correct"
	OutcomeWrong   OutcomeKind = "wrong"
	OutcomeTimeout OutcomeKind = "timeout"
)

// Selection is a player's pick: a 1-based Index into the presented answers,
// or the Answer text itself when Index is zero.
type Selection struct {
	Index  int    `json:"index,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// RoundView is the render request for one question.
type RoundView struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	Progress      int      `json:"progress"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Prompt        string   `json:"prompt"`
	Answers       []string `json:"answers"`
	Score         int      `json:"score"`
	TimeRemaining int      `json:"timeRemaining"`
}

// RoundOutcome is what a resolved round reports back to the session.
type RoundOutcome struct {
	Index         int         `json:"index"`
	Kind          OutcomeKind `json:"kind"`
	Selected      string      `json:"selected,omitempty"`
	CorrectAnswer string      `json:"correctAnswer"`
	TimeRemaining int         `json:"timeRemaining"`
}

// Summary is the completion report of a session.
type Summary struct {
	PlayerName   string             `json:"playerName"`
	Score        int                `json:"score"`
	Total        int                `json:"total"`
	Percentage   int                `json:"percentage"`
	NewHighScore bool               `json:"newHighScore"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}
