// Package observability holds the Prometheus collectors for the exercise domain.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "users",
		Name:      "registered_total",
		Help:      "Number of users registered.",
	})
	exercisesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "entries_recorded_total",
		Help:      "Number of exercise log entries recorded.",
	})
	exerciseMinutes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "entry_duration_minutes",
		Help:      "Distribution of recorded exercise durations in minutes.",
		Buckets:   []float64{5, 10, 15, 30, 45, 60, 90, 120, 180},
	})
	lastEntryGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "last_entry_date_timestamp_seconds",
		Help:      "Unix timestamp of the date carried by the most recently recorded entry.",
	})
)

func init() {
	prometheus.MustRegister(usersRegistered, exercisesLogged, exerciseMinutes, lastEntryGauge)
}

// RecordUserRegistered counts a successful registration.
func RecordUserRegistered() {
	usersRegistered.Inc()
}

// RecordExerciseLogged counts a stored entry and tracks its duration.
func RecordExerciseLogged(date time.Time, minutes float64) {
	exercisesLogged.Inc()
	if minutes >= 0 {
		exerciseMinutes.Observe(minutes)
	}
	if !date.IsZero() {
		lastEntryGauge.Set(float64(date.Unix()))
	}
}
