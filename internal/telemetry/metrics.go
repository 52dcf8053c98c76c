package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trivia_quiz"

// Metrics implements app.Metrics with Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	sessions *prometheus.CounterVec
	answers  *prometheus.CounterVec
	saved    prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Quiz sessions by lifecycle event.",
		}, []string{"event"}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers recorded, by correctness.",
		}, []string{"correct"}),
		saved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_saved_total",
			Help:      "Score records appended to the store.",
		}),
	}
}

func (m *Metrics) SessionStarted()   { m.sessions.WithLabelValues("started").Inc() }
func (m *Metrics) LoadFailed()       { m.sessions.WithLabelValues("load_failed").Inc() }
func (m *Metrics) SessionCompleted() { m.sessions.WithLabelValues("completed").Inc() }
func (m *Metrics) SessionCancelled() { m.sessions.WithLabelValues("cancelled").Inc() }
func (m *Metrics) ScoreSaved()       { m.saved.Inc() }

func (m *Metrics) AnswerRecorded(correct bool) {
	label := "false"
	if correct {
		label = "true"
	}
	m.answers.WithLabelValues(label).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
