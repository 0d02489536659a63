// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	users  *domain.UserService
	logs   *domain.LogService
	logger zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(users *domain.UserService, logs *domain.LogService, logger zerolog.Logger) *Handler {
	return &Handler{users: users, logs: logs, logger: logger}
}

// RegisterRoutes wires endpoints to the mux. Anything unmatched falls through
// to the static assets and then to a 404.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", serveIndex)
	mux.Handle("POST /api/exercise/new-user", h.handle(h.newUser))
	mux.Handle("POST /api/exercise/add", h.handle(h.addExercise))
	mux.Handle("GET /api/exercise/users", h.handle(h.listUsers))
	mux.Handle("GET /api/exercise/log", h.handle(h.exerciseLog))
	mux.HandleFunc("GET /healthz", healthz)
	mux.Handle("/", h.handle(serveStaticOrNotFound))
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) newUser(w http.ResponseWriter, r *http.Request) error {
	fields, err := readFields(r)
	if err != nil {
		return err
	}

	user, err := h.users.Register(r.Context(), fields.Get("username"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, UserView{ID: user.ID, Username: user.Username})
	return nil
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) error {
	fields, err := readFields(r)
	if err != nil {
		return err
	}
	userID := fields.Get("userId")

	user, err := h.users.ResolveUsername(r.Context(), userID, false)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUnknownUser
	}

	var date time.Time
	if raw := fields.Get("date"); strings.TrimSpace(raw) != "" {
		parsed, ok := domain.ParseDate(raw)
		if !ok {
			return domain.ValidationErrors{domain.CastError("date", "date", raw)}
		}
		date = parsed
	}

	duration, err := parseDuration(fields.Get("duration"))
	if err != nil {
		return err
	}

	entry, err := h.logs.Record(r.Context(), domain.RecordInput{
		Username:    user.Username,
		Date:        date,
		Duration:    duration,
		Description: fields.Get("description"),
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, ExerciseView{
		Username:    entry.Username,
		Date:        domain.FormatCalendarDate(entry.Date),
		Duration:    entry.Duration,
		Description: entry.Description,
		UserID:      userID,
	})
	return nil
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		return err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, UserView{ID: u.ID, Username: u.Username})
	}
	writeJSON(w, http.StatusOK, views)
	return nil
}

func (h *Handler) exerciseLog(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	from, err := parseBound(query, "from")
	if err != nil {
		return err
	}
	to, err := parseBound(query, "to")
	if err != nil {
		return err
	}

	result, err := h.logs.Retrieve(r.Context(), query.Get("userId"), parseLimit(query.Get("limit")), from, to)
	if err != nil {
		return err
	}
	if result == nil {
		writeJSON(w, http.StatusOK, nil)
		return nil
	}

	view := LogView{
		ID:       result.UserID,
		Username: result.Username,
		Count:    result.Count,
		Log:      make([]LogItemView, 0, len(result.Entries)),
	}
	for _, entry := range result.Entries {
		view.Log = append(view.Log, LogItemView{
			Description: entry.Description,
			Duration:    entry.Duration,
			Date:        domain.FormatHTTPDate(entry.Date),
		})
	}
	writeJSON(w, http.StatusOK, view)
	return nil
}

// parseDuration coerces the form value to minutes. Blank means absent.
func parseDuration(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.ValidationErrors{domain.CastError("duration", "Number", raw)}
	}
	return &v, nil
}

// parseLimit returns 0 (no cap) for absent, non-numeric or non-positive input.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseBound(query map[string][]string, key string) (*time.Time, error) {
	values := query[key]
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, nil
	}
	t, ok := domain.ParseDate(values[0])
	if !ok {
		return nil, domain.ValidationErrors{domain.CastError(key, "date", values[0])}
	}
	return &t, nil
}

// UserView is the public shape of a user.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ExerciseView is the response body for a newly added exercise. UserID
// echoes the userId the caller supplied.
type ExerciseView struct {
	Username    string  `json:"username"`
	Date        string  `json:"date"`
	Duration    float64 `json:"duration"`
	Description string  `json:"description"`
	UserID      string  `json:"_id"`
}

// LogView is the response body for a log retrieval.
type LogView struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Count    int           `json:"count"`
	Log      []LogItemView `json:"log"`
}

// LogItemView is a single entry inside LogView.
type LogItemView struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}
