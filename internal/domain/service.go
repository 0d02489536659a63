// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/observability"
)

// UserRepository captures user persistence operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	// FindUserByID returns nil, nil when no user has the given ID.
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindAllUsers(ctx context.Context) ([]User, error)
}

// LogRepository captures exercise log persistence operations.
type LogRepository interface {
	CreateLogEntry(ctx context.Context, entry LogEntry) error
	FindLogEntries(ctx context.Context, query LogQuery) ([]LogEntry, error)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// UserService registers and resolves users.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register validates and stores a new user with a freshly assigned ID.
func (s *UserService) Register(ctx context.Context, username string) (*User, error) {
	if username == "" {
		return nil, ValidationErrors{RequiredError("username")}
	}

	user := User{ID: uuid.NewString(), Username: username}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	observability.RecordUserRegistered()
	return &user, nil
}

// ResolveUsername looks up the user behind userID. A missing or malformed ID
// yields nil without an error; callers must check for absence. When withID
// is false the returned projection carries only the username.
func (s *UserService) ResolveUsername(ctx context.Context, userID string, withID bool) (*User, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, nil
	}
	// Stores key on the canonical lowercase dashed form.
	user, err := s.repo.FindUserByID(ctx, parsed.String())
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	if user == nil {
		return nil, nil
	}
	if !withID {
		user.ID = ""
	}
	return user, nil
}

// ListAll returns every user in insertion order.
func (s *UserService) ListAll(ctx context.Context) ([]User, error) {
	users, err := s.repo.FindAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// LogService records and retrieves exercise log entries.
type LogService struct {
	users *UserService
	repo  LogRepository
	now   Clock
}

// NewLogService constructs a LogService. A nil clock uses time.Now.
func NewLogService(users *UserService, repo LogRepository, now Clock) *LogService {
	if now == nil {
		now = time.Now
	}
	return &LogService{users: users, repo: repo, now: now}
}

// RecordInput is the coerced payload for a new log entry. A zero Date means
// "now"; a nil Duration means the field was not supplied.
type RecordInput struct {
	Username    string
	Date        time.Time
	Duration    *float64
	Description string
}

// Record validates and stores an entry for the given username.
func (s *LogService) Record(ctx context.Context, input RecordInput) (*LogEntry, error) {
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	var failures ValidationErrors
	if input.Username == "" {
		failures = append(failures, RequiredError("username"))
	}
	if input.Duration == nil {
		failures = append(failures, RequiredError("duration"))
	}
	if input.Description == "" {
		failures = append(failures, RequiredError("description"))
	}
	if err := failures.OrNil(); err != nil {
		return nil, err
	}

	entry := LogEntry{
		ID:          uuid.NewString(),
		Username:    input.Username,
		Date:        NormalizeDate(date),
		Duration:    *input.Duration,
		Description: input.Description,
	}
	if err := s.repo.CreateLogEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log entry: %w", err)
	}
	observability.RecordExerciseLogged(entry.Date, entry.Duration)
	return &entry, nil
}

// Retrieve returns the filtered log for userID, or nil when the user does not exist.
func (s *LogService) Retrieve(ctx context.Context, userID string, limit int, from, to *time.Time) (*UserLog, error) {
	user, err := s.users.ResolveUsername(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	entries, err := s.repo.FindLogEntries(ctx, LogQuery{
		Username: user.Username,
		From:     from,
		To:       to,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find log entries for %s: %w", user.Username, err)
	}
	if entries == nil {
		entries = []LogEntry{}
	}

	return &UserLog{
		UserID:   userID,
		Username: user.Username,
		Count:    len(entries),
		Entries:  entries,
	}, nil
}
