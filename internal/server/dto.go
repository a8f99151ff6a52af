package server

import (
	"encoding/json"

	"goalplanner/internal/analysis"
	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/plan"
)

// Request payloads

type RegisterRequest struct {
	Email string `json:"email" format:"email"`
	Name  string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email string `json:"email" format:"email"`
	Name  string `json:"name,omitempty"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty" maxLength:"100"`
}

type AnalyzeGoalRequest struct {
	Goal    string         `json:"goal" example:"Launch a mobile app in 8 weeks"`
	Context map[string]any `json:"context,omitempty"`
}

type CreateProjectRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Goal        string             `json:"goal"`
	Deadline    string             `json:"deadline,omitempty"`
	Priority    string             `json:"priority,omitempty" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status      string             `json:"status,omitempty" enum:"PLANNING,IN_PROGRESS,PAUSED,COMPLETED,CANCELLED"`
	Tags        []string           `json:"tags,omitempty"`
	AIAnalysis  *domain.AIAnalysis `json:"ai_analysis,omitempty"`
}

// PlanTaskInput is one breakdown task as returned by analyze-goal.
type PlanTaskInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	EstimatedHours  float64  `json:"estimated_hours,omitempty" minimum:"0"`
	Dependencies    []string `json:"dependencies,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ResourcesNeeded []string `json:"resources_needed,omitempty"`
	AIConfidence    *float64 `json:"ai_confidence,omitempty" minimum:"0" maximum:"1"`
}

type PlanAnalysisInput struct {
	GoalClarity        float64  `json:"goal_clarity,omitempty"`
	ComplexityLevel    string   `json:"complexity_level,omitempty"`
	EstimatedTotalTime float64  `json:"estimated_total_time,omitempty" minimum:"0"`
	KeyChallenges      []string `json:"key_challenges,omitempty"`
	SuccessCriteria    []string `json:"success_criteria,omitempty"`
}

// CreateProjectWithTasksRequest creates a project and its tasks in one call.
// With neither analysis nor tasks, the goal is analyzed first.
type CreateProjectWithTasksRequest struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Goal        string             `json:"goal"`
	Deadline    string             `json:"deadline,omitempty"`
	Priority    string             `json:"priority,omitempty" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Tags        []string           `json:"tags,omitempty"`
	Context     map[string]any     `json:"context,omitempty"`
	Analysis    *PlanAnalysisInput `json:"analysis,omitempty"`
	PlanTasks   []PlanTaskInput    `json:"plan_tasks,omitempty" maxItems:"100"`
	Tasks       []TaskFields       `json:"tasks,omitempty" maxItems:"100"`
}

type TaskFields struct {
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Priority       string            `json:"priority,omitempty" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status         string            `json:"status,omitempty" enum:"TODO,IN_PROGRESS,REVIEW,COMPLETED,CANCELLED"`
	ParentTaskID   string            `json:"parent_task_id,omitempty"`
	EstimatedHours float64           `json:"estimated_hours,omitempty" minimum:"0"`
	ActualHours    float64           `json:"actual_hours,omitempty" minimum:"0"`
	StartDate      string            `json:"start_date,omitempty"`
	DueDate        string            `json:"due_date,omitempty"`
	AIGenerated    *bool             `json:"ai_generated,omitempty"`
	AIConfidence   *float64          `json:"ai_confidence,omitempty" minimum:"0" maximum:"1"`
	Dependencies   []string          `json:"dependencies,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Resources      []domain.Resource `json:"resources,omitempty"`
	Order          *int              `json:"order,omitempty" minimum:"0"`
}

type CreateTaskRequest struct {
	ProjectID string `json:"project_id"`
	TaskFields
}

type BulkCreateTasksRequest struct {
	ProjectID string       `json:"project_id"`
	Tasks     []TaskFields `json:"tasks" minItems:"1" maxItems:"100"`
}

type UpdateProjectRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Goal        *string   `json:"goal,omitempty"`
	Deadline    *string   `json:"deadline,omitempty" nullable:"true"`
	Priority    *string   `json:"priority,omitempty" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status      *string   `json:"status,omitempty" enum:"PLANNING,IN_PROGRESS,PAUSED,COMPLETED,CANCELLED"`
	Tags        *[]string `json:"tags,omitempty"`
}

type UpdateTaskRequest struct {
	Title          *string            `json:"title,omitempty"`
	Description    *string            `json:"description,omitempty"`
	Priority       *string            `json:"priority,omitempty" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status         *string            `json:"status,omitempty" enum:"TODO,IN_PROGRESS,REVIEW,COMPLETED,CANCELLED"`
	ParentTaskID   *string            `json:"parent_task_id,omitempty" nullable:"true"`
	EstimatedHours *float64           `json:"estimated_hours,omitempty" minimum:"0"`
	ActualHours    *float64           `json:"actual_hours,omitempty" minimum:"0"`
	StartDate      *string            `json:"start_date,omitempty" nullable:"true"`
	DueDate        *string            `json:"due_date,omitempty" nullable:"true"`
	CompletionDate *string            `json:"completion_date,omitempty" nullable:"true"`
	AIConfidence   *float64           `json:"ai_confidence,omitempty" minimum:"0" maximum:"1"`
	Dependencies   *[]string          `json:"dependencies,omitempty"`
	Tags           *[]string          `json:"tags,omitempty"`
	Resources      *[]domain.Resource `json:"resources,omitempty"`
}

type ReorderTasksRequest struct {
	ProjectID string   `json:"project_id"`
	TaskIDs   []string `json:"task_ids" minItems:"1"`
}

// Response payloads

type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at" format:"date-time"`
	User      domain.User `json:"user"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type MeResponse struct {
	User   domain.User `json:"user"`
	Source string      `json:"source" enum:"jwt,api_key"`
}

type ProgressResponse struct {
	ProjectID string `json:"project_id"`
	Progress  int    `json:"progress" minimum:"0" maximum:"100"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type ProjectWithTasksResponse struct {
	Project domain.Project `json:"project"`
	Tasks   []domain.Task  `json:"tasks"`
	// Analysis is set when the server ran the analysis itself.
	Analysis *analysis.Outcome `json:"analysis,omitempty"`
}

type paginatedProjects struct {
	Items      []domain.Project `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type taskList struct {
	Items []domain.Task `json:"items"`
}

type sessionList struct {
	Items []domain.AnalysisSession `json:"items"`
}

// Conversion helpers

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func (f TaskFields) options(projectID, actorID string) engine.TaskCreateOptions {
	return engine.TaskCreateOptions{
		ProjectID:      projectID,
		ParentTaskID:   f.ParentTaskID,
		Title:          f.Title,
		Description:    f.Description,
		Priority:       f.Priority,
		Status:         f.Status,
		EstimatedHours: f.EstimatedHours,
		ActualHours:    f.ActualHours,
		StartDate:      f.StartDate,
		DueDate:        f.DueDate,
		AIGenerated:    f.AIGenerated,
		AIConfidence:   f.AIConfidence,
		Dependencies:   f.Dependencies,
		Tags:           f.Tags,
		Resources:      f.Resources,
		Order:          f.Order,
		ActorID:        actorID,
	}
}

func taskOptions(fields []TaskFields, projectID, actorID string) []engine.TaskCreateOptions {
	out := make([]engine.TaskCreateOptions, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.options(projectID, actorID))
	}
	return out
}

func planResult(a *PlanAnalysisInput, tasks []PlanTaskInput) plan.Result {
	var r plan.Result
	if a != nil {
		r.ProjectAnalysis = plan.Analysis{
			GoalClarity:        a.GoalClarity,
			ComplexityLevel:    a.ComplexityLevel,
			EstimatedTotalTime: a.EstimatedTotalTime,
			KeyChallenges:      nonNilSlice(a.KeyChallenges),
			SuccessCriteria:    nonNilSlice(a.SuccessCriteria),
		}
	}
	r.Tasks = make([]plan.Task, 0, len(tasks))
	for _, t := range tasks {
		r.Tasks = append(r.Tasks, plan.Task{
			Title:           t.Title,
			Description:     t.Description,
			Priority:        t.Priority,
			EstimatedHours:  t.EstimatedHours,
			Dependencies:    nonNilSlice(t.Dependencies),
			Tags:            nonNilSlice(t.Tags),
			ResourcesNeeded: nonNilSlice(t.ResourcesNeeded),
			AIConfidence:    t.AIConfidence,
		})
	}
	return r
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
