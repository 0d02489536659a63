package domain

import "time"

// LogEntry is one exercise session. Username is a copy of the owning user's
// name taken at creation time, not a reference to the user's ID.
type LogEntry struct {
	ID          string    `db:"id"`
	Username    string    `db:"username"`
	Date        time.Time `db:"date"`
	Duration    float64   `db:"duration"`
	Description string    `db:"description"`
}

// LogQuery selects entries for a username. Zero-valued bounds and a
// non-positive limit are not applied.
type LogQuery struct {
	Username string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// UserLog is the result of a log retrieval for a single user.
type UserLog struct {
	// UserID echoes the identifier the caller asked for.
	UserID   string
	Username string
	Count    int
	Entries  []LogEntry
}
