// Package events defines the payloads published when records are created.
package events

import (
	"slices"
	"time"
)

// Event types carried in the event_type Kafka header and the outbox table.
const (
	TypeUserRegistered = "user.registered"
	TypeExerciseLogged = "exercise.logged"
)

// Header keys attached to every relayed Kafka record.
const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderAggregateID   = "aggregate_id"
)

// UserRegistered is emitted when a new user is stored.
type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ExerciseLogged is emitted when a log entry is stored.
type ExerciseLogged struct {
	EntryID     string    `json:"entry_id"`
	Username    string    `json:"username"`
	Date        time.Time `json:"date"`
	Duration    float64   `json:"duration"`
	Description string    `json:"description"`
}

// Route describes where an event type is published.
type Route struct {
	Topic string
}

// Catalog maps event types to their topics.
var Catalog = map[string]Route{
	TypeUserRegistered: {Topic: "exercise_users"},
	TypeExerciseLogged: {Topic: "exercise_logs"},
}

// Topics lists every topic in the catalog.
func Topics() []string {
	out := make([]string, 0, len(Catalog))
	seen := make(map[string]struct{}, len(Catalog))
	for _, route := range Catalog {
		if _, ok := seen[route.Topic]; ok {
			continue
		}
		seen[route.Topic] = struct{}{}
		out = append(out, route.Topic)
	}
	slices.Sort(out)
	return out
}
