// Package analysis turns a free-text goal into a structured breakdown,
// preferring the configured model and falling back to the canned templates.
// Every attempt past input validation leaves one audit session behind.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"goalplanner/internal/domain"
	"goalplanner/internal/llm"
	"goalplanner/internal/plan"
)

// MinGoalLength is the minimum trimmed goal length in characters.
const MinGoalLength = 5

// Sources reported on an Outcome.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// InvalidGoalError rejects input before any model call or audit write.
type InvalidGoalError struct {
	Reason string
}

func (e *InvalidGoalError) Error() string { return "invalid goal: " + e.Reason }

// UnavailableError means no breakdown could be produced at all.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return fmt.Sprintf("analysis unavailable: %v", e.Err) }
func (e *UnavailableError) Unwrap() error { return e.Err }

// Store persists audit sessions. Sessions are append-only.
type Store interface {
	InsertSession(ctx context.Context, s domain.AnalysisSession) error
	GetSession(ctx context.Context, id string) (domain.AnalysisSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]domain.AnalysisSession, error)
}

type Request struct {
	Goal    string
	Context map[string]any
	UserID  string
}

type Outcome struct {
	Analysis         plan.Analysis `json:"analysis"`
	Tasks            []plan.Task   `json:"tasks"`
	SessionID        string        `json:"session_id,omitempty"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
	TokensUsed       int           `json:"tokens_used"`
	Source           string        `json:"source" enum:"model,fallback"`
}

type Service struct {
	// Model is nil when no model endpoint is configured.
	Model     llm.Generator
	ModelName string
	Timeout   time.Duration
	Sessions  Store
	Fallback  func(goal string) plan.Result
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// ErrSessionNotFound hides sessions that are missing or belong to another user.
var ErrSessionNotFound = errors.New("analysis session not found")

// GetSession returns one of the user's sessions, raw model reply included.
func (s Service) GetSession(ctx context.Context, userID, id string) (domain.AnalysisSession, error) {
	if s.Sessions == nil {
		return domain.AnalysisSession{}, ErrSessionNotFound
	}
	sess, err := s.Sessions.GetSession(ctx, id)
	if err != nil {
		return domain.AnalysisSession{}, fmt.Errorf("get session %s: %w", id, errors.Join(ErrSessionNotFound, err))
	}
	if sess.UserID != userID {
		return domain.AnalysisSession{}, ErrSessionNotFound
	}
	return sess, nil
}

// ListSessions returns the user's most recent sessions, newest first.
func (s Service) ListSessions(ctx context.Context, userID string, limit int) ([]domain.AnalysisSession, error) {
	if s.Sessions == nil {
		return []domain.AnalysisSession{}, nil
	}
	sessions, err := s.Sessions.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ValidateGoal applies the minimum-length rule.
func ValidateGoal(goal string) error {
	trimmed := strings.TrimSpace(goal)
	if utf8.RuneCountInString(trimmed) < MinGoalLength {
		return &InvalidGoalError{Reason: fmt.Sprintf("goal must be at least %d characters", MinGoalLength)}
	}
	return nil
}

// Analyze produces a breakdown for req.Goal. The model is tried once; any
// model or extraction failure falls through to the fallback templates.
func (s Service) Analyze(ctx context.Context, req Request) (Outcome, error) {
	if err := ValidateGoal(req.Goal); err != nil {
		return Outcome{}, err
	}
	goal := strings.TrimSpace(req.Goal)
	prompt, err := plan.BuildPrompt(goal, req.Context)
	if err != nil {
		return Outcome{}, &InvalidGoalError{Reason: err.Error()}
	}
	log := s.logger().With("user_id", req.UserID)
	start := s.now()

	var (
		result   plan.Result
		source   = SourceFallback
		tokens   int
		modelErr error
	)
	if s.Model != nil {
		result, tokens, modelErr = s.fromModel(ctx, prompt)
		if modelErr == nil {
			source = SourceModel
		} else {
			log.Warn("model analysis failed, using fallback", "model", s.ModelName, "error", modelErr)
		}
	}
	if source == SourceFallback {
		tokens = 0
		var fbErr error
		result, fbErr = s.synthesize(goal)
		if fbErr != nil {
			log.Error("fallback synthesis failed", "error", fbErr)
			session := s.session(req, prompt, "", source, 0, s.elapsed(start), 0, joinErrors(modelErr, fbErr))
			s.record(ctx, log, session)
			return Outcome{}, &UnavailableError{Err: fbErr}
		}
	}

	elapsed := s.elapsed(start)
	session := s.session(req, prompt, plan.Marshal(result), source, len(result.Tasks), elapsed, tokens, modelErr)
	out := Outcome{
		Analysis:         result.ProjectAnalysis,
		Tasks:            result.Tasks,
		ProcessingTimeMs: elapsed,
		TokensUsed:       tokens,
		Source:           source,
	}
	if s.record(ctx, log, session) {
		out.SessionID = session.ID
	}
	log.Info("goal analyzed", "source", source, "tasks", len(result.Tasks), "tokens", tokens, "elapsed_ms", elapsed)
	return out, nil
}

func (s Service) fromModel(ctx context.Context, prompt string) (plan.Result, int, error) {
	completion, err := llm.Complete(ctx, s.Model, prompt, s.Timeout)
	if err != nil {
		return plan.Result{}, 0, fmt.Errorf("model call: %w", err)
	}
	s.logger().Debug("raw model response", "model", s.ModelName, "text", completion.Text)
	result, err := plan.Extract(completion.Text)
	if err != nil {
		return plan.Result{}, 0, err
	}
	return result, completion.Tokens, nil
}

// synthesize runs the fallback, converting a panic into an error.
func (s Service) synthesize(goal string) (res plan.Result, err error) {
	fallback := s.Fallback
	if fallback == nil {
		fallback = plan.Synthesize
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fallback panicked: %v", r)
		}
	}()
	return fallback(goal), nil
}

func (s Service) elapsed(start time.Time) int64 {
	ms := s.now().Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func (s Service) session(req Request, prompt, raw, source string, tasks int, elapsed int64, tokens int, failure error) domain.AnalysisSession {
	modelUsed := SourceFallback
	if source == SourceModel {
		modelUsed = s.ModelName
	}
	sess := domain.AnalysisSession{
		ID:               s.newID(),
		UserID:           req.UserID,
		InputGoal:        req.Goal,
		ProcessedPrompt:  prompt,
		ModelResponseRaw: raw,
		ModelUsed:        modelUsed,
		TasksGenerated:   tasks,
		ProcessingTimeMs: elapsed,
		TokensUsed:       tokens,
		Success:          failure == nil,
		CreatedAt:        s.now().UTC().Format(time.RFC3339),
	}
	if failure != nil {
		msg := failure.Error()
		sess.ErrorMessage = &msg
	}
	return sess
}

// record writes the audit session; failures are logged and swallowed.
func (s Service) record(ctx context.Context, log *slog.Logger, sess domain.AnalysisSession) bool {
	if s.Sessions == nil {
		return false
	}
	if err := s.Sessions.InsertSession(ctx, sess); err != nil {
		log.Error("record analysis session", "session_id", sess.ID, "error", err)
		return false
	}
	return true
}

func joinErrors(a, b error) error {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return fmt.Errorf("%v; %w", a, b)
	}
}
