package domain_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
)

var fixedNow = time.Date(2026, time.October, 19, 14, 30, 15, 500, time.UTC)

func newServices() (*domain.UserService, *domain.LogService) {
	store := memory.NewStore()
	users := domain.NewUserService(store)
	logs := domain.NewLogService(users, store, func() time.Time { return fixedNow })
	return users, logs
}

func minutes(v float64) *float64 { return &v }

func TestRegisterAssignsDistinctIDs(t *testing.T) {
	users, _ := newServices()
	ctx := context.Background()

	first, err := users.Register(ctx, "alice")
	require.NoError(t, err)
	second, err := users.Register(ctx, "alice")
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.NoError(t, uuid.Validate(first.ID))

	// Duplicate usernames are permitted.
	all, err := users.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "alice", all[0].Username)
	require.Equal(t, "alice", all[1].Username)
}

func TestRegisterRequiresUsername(t *testing.T) {
	users, _ := newServices()

	_, err := users.Register(context.Background(), "")
	require.Error(t, err)
	verr, ok := domain.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "username", verr.Field)
	require.Equal(t, "Path `username` is required.", verr.Message)

	// Only an empty string is missing; whitespace is a value.
	blank, err := users.Register(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, "   ", blank.Username)
}

func TestRecordAcceptsWhitespaceDescription(t *testing.T) {
	_, logs := newServices()

	entry, err := logs.Record(context.Background(), domain.RecordInput{
		Username:    "alice",
		Duration:    minutes(5),
		Description: " ",
	})
	require.NoError(t, err)
	require.Equal(t, " ", entry.Description)
}

func TestResolveUsernameAcceptsAlternateIDForms(t *testing.T) {
	users, _ := newServices()
	ctx := context.Background()
	created, err := users.Register(ctx, "alice")
	require.NoError(t, err)

	forms := []string{
		strings.ToUpper(created.ID),
		strings.ReplaceAll(created.ID, "-", ""),
		"{" + created.ID + "}",
		"urn:uuid:" + created.ID,
		" " + created.ID + " ",
	}
	for _, id := range forms {
		user, err := users.ResolveUsername(ctx, id, true)
		require.NoError(t, err, id)
		require.NotNil(t, user, id)
		require.Equal(t, created.ID, user.ID)
		require.Equal(t, "alice", user.Username)
	}
}

func TestResolveUsernameProjection(t *testing.T) {
	users, _ := newServices()
	ctx := context.Background()
	created, err := users.Register(ctx, "alice")
	require.NoError(t, err)

	withID, err := users.ResolveUsername(ctx, created.ID, true)
	require.NoError(t, err)
	require.Equal(t, &domain.User{ID: created.ID, Username: "alice"}, withID)

	withoutID, err := users.ResolveUsername(ctx, created.ID, false)
	require.NoError(t, err)
	require.Equal(t, &domain.User{Username: "alice"}, withoutID)
}

func TestResolveUsernameAbsent(t *testing.T) {
	users, _ := newServices()
	ctx := context.Background()

	for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
		user, err := users.ResolveUsername(ctx, id, true)
		require.NoError(t, err)
		require.Nil(t, user)
	}
}

func TestRecordDefaultsDateToNow(t *testing.T) {
	_, logs := newServices()

	entry, err := logs.Record(context.Background(), domain.RecordInput{
		Username:    "alice",
		Duration:    minutes(30),
		Description: "run",
	})
	require.NoError(t, err)
	require.Equal(t, fixedNow.Truncate(time.Second), entry.Date)
	require.Equal(t, 30.0, entry.Duration)
}

func TestRecordReportsFirstMissingField(t *testing.T) {
	_, logs := newServices()

	tests := []struct {
		name  string
		input domain.RecordInput
		field string
	}{
		{name: "missing duration", input: domain.RecordInput{Username: "alice", Description: "run"}, field: "duration"},
		{name: "missing description", input: domain.RecordInput{Username: "alice", Duration: minutes(10)}, field: "description"},
		{name: "both missing", input: domain.RecordInput{Username: "alice"}, field: "duration"},
		{name: "missing username", input: domain.RecordInput{Duration: minutes(10), Description: "run"}, field: "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := logs.Record(context.Background(), tt.input)
			verr, ok := domain.AsValidation(err)
			require.True(t, ok)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRetrieveUnknownUserIsAbsent(t *testing.T) {
	_, logs := newServices()

	result, err := logs.Retrieve(context.Background(), uuid.NewString(), 0, nil, nil)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestRetrieveFiltersAndCounts(t *testing.T) {
	users, logs := newServices()
	ctx := context.Background()

	alice, err := users.Register(ctx, "alice")
	require.NoError(t, err)

	base := time.Date(2026, time.June, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := logs.Record(ctx, domain.RecordInput{
			Username:    alice.Username,
			Date:        base.AddDate(0, 0, i),
			Duration:    minutes(float64(15 * (i + 1))),
			Description: "swim",
		})
		require.NoError(t, err)
	}

	all, err := logs.Retrieve(ctx, alice.ID, 0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, alice.ID, all.UserID)
	require.Equal(t, "alice", all.Username)
	require.Equal(t, 4, all.Count)
	require.Len(t, all.Entries, 4)

	limited, err := logs.Retrieve(ctx, alice.ID, 3, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, limited.Count)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, err := logs.Retrieve(ctx, alice.ID, 0, &from, &to)
	require.NoError(t, err)
	require.Equal(t, 2, ranged.Count)
	require.Equal(t, 30.0, ranged.Entries[0].Duration)
	require.Equal(t, 45.0, ranged.Entries[1].Duration)
}

func TestRetrieveWrapsStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	users := domain.NewUserService(failingUsers{err: boom})
	logs := domain.NewLogService(users, memory.NewStore(), nil)

	_, err := logs.Retrieve(context.Background(), uuid.NewString(), 0, nil, nil)
	require.ErrorIs(t, err, boom)
	_, isValidation := domain.AsValidation(err)
	require.False(t, isValidation)
}

type failingUsers struct {
	err error
}

func (f failingUsers) CreateUser(context.Context, domain.User) error { return f.err }

func (f failingUsers) FindUserByID(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

func (f failingUsers) FindAllUsers(context.Context) ([]domain.User, error) { return nil, f.err }
