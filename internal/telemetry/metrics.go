package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

const namespace = "trivia"

// Metrics counts quiz activity. Register it once per registry.
type Metrics struct {
	rounds     *prometheus.CounterVec
	sessions   prometheus.Counter
	highScores prometheus.Counter
	failures   *prometheus.CounterVec
	scores     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rounds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Resolved rounds by outcome.",
		}, []string{"outcome"}),
		sessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Sessions that reached the results screen.",
		}),
		highScores: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "high_scores_total",
			Help:      "Completed sessions that entered the leaderboard.",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Sessions that ended on an error, by kind.",
		}, []string{"kind"}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_percentage",
			Help:      "Final score percentage of completed sessions.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// ObserveFailure counts a session that ended with err.
func (m *Metrics) ObserveFailure(err error) {
	if err == nil {
		return
	}
	m.failures.WithLabelValues(failureKind(err)).Inc()
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	case errors.Is(err, domain.ErrSource):
		return "source"
	default:
		return "other"
	}
}

// Presenter wraps next so that every rendered event is also counted.
func (m *Metrics) Presenter(next app.Presenter) app.Presenter {
	return &instrumented{next: next, m: m}
}

type instrumented struct {
	next app.Presenter
	m    *Metrics
}

func (p *instrumented) Loading() { p.next.Loading() }

func (p *instrumented) RoundStarted(view domain.RoundView) { p.next.RoundStarted(view) }

func (p *instrumented) TimerTicked(remaining int, warning bool) {
	p.next.TimerTicked(remaining, warning)
}

func (p *instrumented) RoundResolved(outcome domain.RoundOutcome) {
	p.m.rounds.WithLabelValues(string(outcome.Kind)).Inc()
	p.next.RoundResolved(outcome)
}

func (p *instrumented) SessionCompleted(summary domain.Summary) {
	p.m.sessions.Inc()
	p.m.scores.Observe(float64(summary.Percentage))
	if summary.NewHighScore {
		p.m.highScores.Inc()
	}
	p.next.SessionCompleted(summary)
}

func (p *instrumented) SessionEnded() { p.next.SessionEnded() }
