package goalplannersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Goal Planner HTTP API client.
type Client struct {
	BaseURL string
	// BasePath is the API prefix, "api" unless the server was mounted elsewhere.
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults. Analysis calls wait on the
// model, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "api",
		Timeout:  90 * time.Second,
	}
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Token struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

type Analysis struct {
	GoalClarity        float64  `json:"goal_clarity"`
	ComplexityLevel    string   `json:"complexity_level"`
	EstimatedTotalTime float64  `json:"estimated_total_time"`
	KeyChallenges      []string `json:"key_challenges"`
	SuccessCriteria    []string `json:"success_criteria"`
}

// PlanTask is one task of a breakdown.
type PlanTask struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	EstimatedHours  float64  `json:"estimated_hours,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ResourcesNeeded []string `json:"resources_needed,omitempty"`
	AIConfidence    *float64 `json:"ai_confidence,omitempty"`
}

// Outcome is the result of a goal analysis.
type Outcome struct {
	Analysis         Analysis   `json:"analysis"`
	Tasks            []PlanTask `json:"tasks"`
	SessionID        string     `json:"session_id,omitempty"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	TokensUsed       int        `json:"tokens_used"`
	Source           string     `json:"source"`
}

type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Goal        string    `json:"goal"`
	Deadline    *string   `json:"deadline,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AIAnalysis  *Analysis `json:"ai_analysis,omitempty"`
	Progress    int       `json:"progress"`
	Tags        []string  `json:"tags"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

type Task struct {
	ID             string   `json:"id"`
	ProjectID      string   `json:"project_id"`
	ParentTaskID   *string  `json:"parent_task_id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	EstimatedHours float64  `json:"estimated_hours"`
	ActualHours    float64  `json:"actual_hours"`
	CompletionDate *string  `json:"completion_date,omitempty"`
	AIGenerated    bool     `json:"ai_generated"`
	AIConfidence   *float64 `json:"ai_confidence,omitempty"`
	Dependencies   []string `json:"dependencies"`
	Tags           []string `json:"tags"`
	Order          int      `json:"order"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

// ProjectDetail is a project with its tasks in display order.
type ProjectDetail struct {
	Project  Project  `json:"project"`
	Tasks    []Task   `json:"tasks"`
	Analysis *Outcome `json:"analysis,omitempty"`
}

type Session struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	InputGoal        string  `json:"input_goal"`
	ModelUsed        string  `json:"model_used"`
	TasksGenerated   int     `json:"tasks_generated"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	TokensUsed       int     `json:"tokens_used"`
	Success          bool    `json:"success"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// Event represents a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// CreatePlanRequest is the body of CreateProjectWithTasks. Leave Analysis,
// PlanTasks and Tasks empty to have the server analyze Goal first.
type CreatePlanRequest struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Goal        string         `json:"goal"`
	Deadline    string         `json:"deadline,omitempty"`
	Priority    string         `json:"priority,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Analysis    *Analysis      `json:"analysis,omitempty"`
	PlanTasks   []PlanTask     `json:"plan_tasks,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login mints a token for email and keeps it for subsequent calls.
func (c *Client) Login(ctx context.Context, email, name string) (Token, error) {
	body := map[string]any{"email": email}
	if name != "" {
		body["name"] = name
	}
	var resp Token
	if err := c.do(ctx, http.MethodPost, c.apiPath("auth/login"), body, &resp); err != nil {
		return Token{}, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// AnalyzeGoal asks the server for a breakdown of goal.
func (c *Client) AnalyzeGoal(ctx context.Context, goal string, goalContext map[string]any) (Outcome, error) {
	body := map[string]any{"goal": goal}
	if len(goalContext) > 0 {
		body["context"] = goalContext
	}
	var resp Outcome
	err := c.do(ctx, http.MethodPost, c.apiPath("ai/analyze-goal"), body, &resp)
	return resp, err
}

// Sessions returns the caller's recent analysis sessions, newest first.
func (c *Client) Sessions(ctx context.Context, limit int) ([]Session, error) {
	endpoint := c.apiPath("ai/sessions")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []Session `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// CreateProjectWithTasks creates a project and its tasks in one call.
func (c *Client) CreateProjectWithTasks(ctx context.Context, req CreatePlanRequest) (ProjectDetail, error) {
	var resp ProjectDetail
	err := c.do(ctx, http.MethodPost, c.apiPath("projects/with-tasks"), req, &resp)
	return resp, err
}

// GetProject fetches a project with its tasks.
func (c *Client) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	var resp ProjectDetail
	err := c.do(ctx, http.MethodGet, c.apiPath("projects/"+url.PathEscape(id)), nil, &resp)
	return resp, err
}

// UpdateTaskStatus moves a task to status; the project's progress follows.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, status string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, c.apiPath("tasks/"+url.PathEscape(taskID)), map[string]any{"status": status}, &resp)
	return resp, err
}

// EventsPage returns a paginated event listing for a project.
func (c *Client) EventsPage(ctx context.Context, projectID string, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.apiPath(fmt.Sprintf("projects/%s/events", url.PathEscape(projectID)))
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	prefix := strings.Trim(c.BasePath, "/")
	if prefix == "" {
		return strings.TrimLeft(p, "/")
	}
	return prefix + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
