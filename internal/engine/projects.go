package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"goalplanner/internal/domain"
	"goalplanner/internal/events"
	"goalplanner/internal/repo"
)

// ProjectCreateOptions are parameters for creating a project.
type ProjectCreateOptions struct {
	ID          string
	UserID      string             `validate:"required"`
	Title       string             `validate:"required,nonblank,max=200"`
	Description string             `validate:"max=5000"`
	Goal        string             `validate:"required,nonblank,max=2000"`
	Deadline    string             `validate:"omitempty,day"`
	Priority    string             `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      string             `validate:"omitempty,oneof=PLANNING IN_PROGRESS PAUSED COMPLETED CANCELLED"`
	AIAnalysis  *domain.AIAnalysis
	Tags        []string `validate:"max=20,dive,max=50"`
}

// ProjectDetail is a project together with its tasks in display order.
type ProjectDetail struct {
	Project domain.Project `json:"project"`
	Tasks   []domain.Task  `json:"tasks"`
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if err := check(opts); err != nil {
		return domain.Project{}, err
	}
	now := e.stamp()
	p := domain.Project{
		ID:          opts.ID,
		UserID:      opts.UserID,
		Title:       strings.TrimSpace(opts.Title),
		Description: strings.TrimSpace(opts.Description),
		Goal:        strings.TrimSpace(opts.Goal),
		Deadline:    optionalString(opts.Deadline),
		Priority:    opts.Priority,
		Status:      opts.Status,
		AIAnalysis:  opts.AIAnalysis,
		Progress:    0,
		Tags:        cleanStrings(opts.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Priority == "" {
		p.Priority = domain.PriorityMedium
	}
	if p.Status == "" {
		p.Status = domain.ProjectPlanning
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectCreated, p.ID, "project", p.ID, p.UserID, events.Payload{
		"title":    p.Title,
		"status":   p.Status,
		"priority": p.Priority,
	}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (e Engine) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	p, err := e.Repo.GetProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	tasks, err := e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: id})
	if err != nil {
		return ProjectDetail{}, err
	}
	return ProjectDetail{Project: p, Tasks: tasks}, nil
}

// ListProjects returns projects most recently updated first.
func (e Engine) ListProjects(ctx context.Context, f repo.ProjectFilters) ([]domain.Project, error) {
	if f.Status != "" && !domain.IsProjectStatus(f.Status) {
		return nil, invalid("status: unknown project status %q", f.Status)
	}
	projects, err := e.Repo.ListProjects(ctx, f)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, nil
}

// ProjectUpdateOptions lists the writable project fields. Nil means unchanged;
// an empty Deadline clears it. Progress is derived and cannot be set here.
type ProjectUpdateOptions struct {
	ID          string
	ActorID     string
	Title       *string `validate:"omitnil,nonblank,max=200"`
	Description *string `validate:"omitnil,max=5000"`
	Goal        *string `validate:"omitnil,nonblank,max=2000"`
	Deadline    *string
	Priority    *string   `validate:"omitnil,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      *string   `validate:"omitnil,oneof=PLANNING IN_PROGRESS PAUSED COMPLETED CANCELLED"`
	Tags        *[]string `validate:"omitnil,max=20,dive,max=50"`
}

func (e Engine) UpdateProject(ctx context.Context, opts ProjectUpdateOptions) (domain.Project, error) {
	if err := check(opts); err != nil {
		return domain.Project{}, err
	}
	if err := checkDay("Deadline", opts.Deadline); err != nil {
		return domain.Project{}, err
	}
	p, err := e.Repo.GetProject(ctx, opts.ID)
	if err != nil {
		return domain.Project{}, err
	}
	changed := map[string]any{}
	if opts.Title != nil {
		p.Title = strings.TrimSpace(*opts.Title)
		changed["title"] = p.Title
	}
	if opts.Description != nil {
		p.Description = strings.TrimSpace(*opts.Description)
		changed["description"] = p.Description
	}
	if opts.Goal != nil {
		p.Goal = strings.TrimSpace(*opts.Goal)
		changed["goal"] = p.Goal
	}
	if opts.Deadline != nil {
		p.Deadline = optionalString(*opts.Deadline)
		changed["deadline"] = p.Deadline
	}
	if opts.Priority != nil {
		p.Priority = *opts.Priority
		changed["priority"] = p.Priority
	}
	if opts.Status != nil && *opts.Status != p.Status {
		changed["from_status"] = p.Status
		changed["to_status"] = *opts.Status
		p.Status = *opts.Status
	}
	if opts.Tags != nil {
		p.Tags = cleanStrings(*opts.Tags)
		changed["tags"] = p.Tags
	}
	if len(changed) == 0 {
		return p, nil
	}
	p.UpdatedAt = e.stamp()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateProject(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectUpdated, p.ID, "project", p.ID, opts.ActorID, events.Payload{
		"fields":  changedKeys(changed),
		"changes": changed,
	}); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// DeleteProject removes the project; its tasks go with it.
func (e Engine) DeleteProject(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	total, _, err := e.Repo.CountTasksByStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteProject(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectDeleted, id, "project", id, actorID, events.Payload{
		"tasks_deleted": total,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func checkDay(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	if _, err := parseDay(strings.TrimSpace(*v)); err != nil {
		return invalid("%s: expected a date (YYYY-MM-DD) or RFC3339 timestamp", field)
	}
	return nil
}

func changedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
