package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"goalplanner/internal/domain"
	"goalplanner/internal/events"
	"goalplanner/internal/repo"
)

// TaskCreateOptions are parameters for creating a task.
type TaskCreateOptions struct {
	ID             string
	ProjectID      string `validate:"required"`
	ParentTaskID   string
	Title          string   `validate:"required,nonblank,max=200"`
	Description    string   `validate:"max=5000"`
	Priority       string   `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status         string   `validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW COMPLETED CANCELLED"`
	EstimatedHours float64  `validate:"gte=0"`
	ActualHours    float64  `validate:"gte=0"`
	StartDate      string   `validate:"omitempty,day"`
	DueDate        string   `validate:"omitempty,day"`
	AIGenerated    *bool    // defaults to true
	AIConfidence   *float64 `validate:"omitnil,gte=0,lte=1"`
	Dependencies   []string
	Tags           []string `validate:"max=20,dive,max=50"`
	Resources      []domain.Resource
	// Order is appended after the project's last task when nil.
	Order   *int `validate:"omitnil,gte=0"`
	ActorID string
}

func (o TaskCreateOptions) validate() error {
	if err := check(o); err != nil {
		return err
	}
	for i, r := range o.Resources {
		if strings.TrimSpace(r.Name) == "" {
			return invalid("Resources[%d]: name required", i)
		}
	}
	return nil
}

func (e Engine) buildTask(opts TaskCreateOptions, now string) domain.Task {
	t := domain.Task{
		ID:             opts.ID,
		ProjectID:      opts.ProjectID,
		ParentTaskID:   optionalString(opts.ParentTaskID),
		Title:          strings.TrimSpace(opts.Title),
		Description:    strings.TrimSpace(opts.Description),
		Priority:       opts.Priority,
		Status:         opts.Status,
		EstimatedHours: opts.EstimatedHours,
		ActualHours:    opts.ActualHours,
		StartDate:      optionalString(opts.StartDate),
		DueDate:        optionalString(opts.DueDate),
		AIGenerated:    true,
		AIConfidence:   opts.AIConfidence,
		Dependencies:   cleanStrings(opts.Dependencies),
		Tags:           cleanStrings(opts.Tags),
		Resources:      opts.Resources,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if opts.AIGenerated != nil {
		t.AIGenerated = *opts.AIGenerated
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.Status == "" {
		t.Status = domain.TaskTodo
	}
	if t.Status == domain.TaskCompleted {
		t.CompletionDate = &now
	}
	if t.Resources == nil {
		t.Resources = []domain.Resource{}
	}
	return t
}

// CreateTask inserts one task and recomputes the project's progress.
func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	tasks, err := e.BulkCreateTasks(ctx, opts.ProjectID, opts.ActorID, []TaskCreateOptions{opts})
	if err != nil {
		return domain.Task{}, err
	}
	return tasks[0], nil
}

// BulkCreateTasks inserts a batch of tasks into one project in a single
// transaction, then recomputes progress once.
func (e Engine) BulkCreateTasks(ctx context.Context, projectID, actorID string, batch []TaskCreateOptions) ([]domain.Task, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, invalid("ProjectID: required")
	}
	if len(batch) == 0 {
		return []domain.Task{}, nil
	}
	for i := range batch {
		batch[i].ProjectID = projectID
		if err := batch[i].validate(); err != nil {
			if len(batch) > 1 {
				return nil, fmt.Errorf("task %d: %w", i, err)
			}
			return nil, err
		}
	}
	now := e.stamp()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetProjectTx(ctx, tx, projectID); err != nil {
		return nil, err
	}
	next, err := e.Repo.NextTaskOrder(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	created := make([]domain.Task, 0, len(batch))
	for _, opts := range batch {
		t := e.buildTask(opts, now)
		if opts.Order != nil {
			t.Order = *opts.Order
		} else {
			t.Order = next
			next++
		}
		if t.ParentTaskID != nil {
			if err := e.checkParent(ctx, tx, t.ProjectID, *t.ParentTaskID, t.ID); err != nil {
				return nil, err
			}
		}
		if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
			return nil, fmt.Errorf("insert task %q: %w", t.Title, err)
		}
		if err := e.Events.Append(ctx, tx, events.TaskCreated, t.ProjectID, "task", t.ID, actorID, events.Payload{
			"title":  t.Title,
			"status": t.Status,
			"order":  t.Order,
		}); err != nil {
			return nil, err
		}
		created = append(created, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	e.cascade(ctx, projectID)
	return created, nil
}

func (e Engine) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return e.Repo.GetTask(ctx, id)
}

// ListTasks returns the project's tasks in display order.
func (e Engine) ListTasks(ctx context.Context, f repo.TaskFilters) ([]domain.Task, error) {
	if f.Status != "" && !domain.IsTaskStatus(f.Status) {
		return nil, invalid("status: unknown task status %q", f.Status)
	}
	if f.Priority != "" && !domain.IsPriority(f.Priority) {
		return nil, invalid("priority: unknown priority %q", f.Priority)
	}
	return e.Repo.ListTasks(ctx, f)
}

// checkParent rejects parents from another project and parent chains that
// would make childID its own ancestor.
func (e Engine) checkParent(ctx context.Context, tx *sql.Tx, projectID, parentID, childID string) error {
	parent, err := e.Repo.GetTaskTx(ctx, tx, parentID)
	if errors.Is(err, repo.ErrNotFound) {
		return invalid("ParentTaskID: task %s not found", parentID)
	}
	if err != nil {
		return err
	}
	if parent.ProjectID != projectID {
		return invalid("ParentTaskID: parent in different project")
	}
	return e.ensureNoCycle(ctx, tx, parentID, childID)
}

func (e Engine) ensureNoCycle(ctx context.Context, tx *sql.Tx, parentID, childID string) error {
	// climb up the parent chain looking for the child
	seen := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == childID {
			return invalid("ParentTaskID: task hierarchy cycle detected")
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true
		next, err := e.Repo.TaskParent(ctx, tx, cur)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// TaskUpdateOptions lists the writable task fields. Nil means unchanged; an
// empty string clears a nullable field. The project is immutable.
type TaskUpdateOptions struct {
	ID             string
	ActorID        string
	Title          *string  `validate:"omitnil,nonblank,max=200"`
	Description    *string  `validate:"omitnil,max=5000"`
	Priority       *string  `validate:"omitnil,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status         *string  `validate:"omitnil,oneof=TODO IN_PROGRESS REVIEW COMPLETED CANCELLED"`
	EstimatedHours *float64 `validate:"omitnil,gte=0"`
	ActualHours    *float64 `validate:"omitnil,gte=0"`
	StartDate      *string
	DueDate        *string
	CompletionDate *string
	SetParent      *string
	AIConfidence   *float64 `validate:"omitnil,gte=0,lte=1"`
	Dependencies   *[]string
	Tags           *[]string `validate:"omitnil,max=20,dive,max=50"`
	Resources      *[]domain.Resource
}

// UpdateTask applies opts. The first arrival at COMPLETED stamps the
// completion date unless one is already set; a status change triggers the
// progress cascade after commit.
func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	if err := check(opts); err != nil {
		return domain.Task{}, err
	}
	for field, v := range map[string]*string{"StartDate": opts.StartDate, "DueDate": opts.DueDate, "CompletionDate": opts.CompletionDate} {
		if err := checkDay(field, v); err != nil {
			return domain.Task{}, err
		}
	}
	if opts.Resources != nil {
		for i, r := range *opts.Resources {
			if strings.TrimSpace(r.Name) == "" {
				return domain.Task{}, invalid("Resources[%d]: name required", i)
			}
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, opts.ID)
	if err != nil {
		return domain.Task{}, err
	}
	original := t
	changed := []string{}

	if opts.SetParent != nil {
		if strings.TrimSpace(*opts.SetParent) == "" {
			t.ParentTaskID = nil
		} else {
			parentID := strings.TrimSpace(*opts.SetParent)
			if err := e.checkParent(ctx, tx, t.ProjectID, parentID, t.ID); err != nil {
				return domain.Task{}, err
			}
			t.ParentTaskID = &parentID
		}
		changed = append(changed, "parent_task_id")
	}
	if opts.Title != nil {
		t.Title = strings.TrimSpace(*opts.Title)
		changed = append(changed, "title")
	}
	if opts.Description != nil {
		t.Description = strings.TrimSpace(*opts.Description)
		changed = append(changed, "description")
	}
	if opts.Priority != nil {
		t.Priority = *opts.Priority
		changed = append(changed, "priority")
	}
	if opts.EstimatedHours != nil {
		t.EstimatedHours = *opts.EstimatedHours
		changed = append(changed, "estimated_hours")
	}
	if opts.ActualHours != nil {
		t.ActualHours = *opts.ActualHours
		changed = append(changed, "actual_hours")
	}
	if opts.StartDate != nil {
		t.StartDate = optionalString(*opts.StartDate)
		changed = append(changed, "start_date")
	}
	if opts.DueDate != nil {
		t.DueDate = optionalString(*opts.DueDate)
		changed = append(changed, "due_date")
	}
	if opts.CompletionDate != nil {
		t.CompletionDate = optionalString(*opts.CompletionDate)
		changed = append(changed, "completion_date")
	}
	if opts.AIConfidence != nil {
		t.AIConfidence = opts.AIConfidence
		changed = append(changed, "ai_confidence")
	}
	if opts.Dependencies != nil {
		t.Dependencies = cleanStrings(*opts.Dependencies)
		changed = append(changed, "dependencies")
	}
	if opts.Tags != nil {
		t.Tags = cleanStrings(*opts.Tags)
		changed = append(changed, "tags")
	}
	if opts.Resources != nil {
		t.Resources = *opts.Resources
		changed = append(changed, "resources")
	}
	statusChanged := opts.Status != nil && *opts.Status != t.Status
	if statusChanged {
		t.Status = *opts.Status
		changed = append(changed, "status")
		if t.Status == domain.TaskCompleted && t.CompletionDate == nil {
			now := e.stamp()
			t.CompletionDate = &now
		}
	}
	if len(changed) == 0 {
		return t, nil
	}
	t.UpdatedAt = e.stamp()

	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, events.TaskUpdated, t.ProjectID, "task", t.ID, opts.ActorID, events.Payload{
		"fields":      changed,
		"from_status": original.Status,
		"to_status":   t.Status,
	}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	if statusChanged {
		e.cascade(ctx, t.ProjectID)
	}
	return t, nil
}

// DeleteTask removes the task. Its subtasks lose their parent.
func (e Engine) DeleteTask(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteTask(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TaskDeleted, t.ProjectID, "task", t.ID, actorID, events.Payload{
		"title":  t.Title,
		"status": t.Status,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.cascade(ctx, t.ProjectID)
	return nil
}

// ReorderTasks puts the listed tasks first, in the given order, followed by
// the remaining tasks in their current order. Orders are rewritten densely
// from zero.
func (e Engine) ReorderTasks(ctx context.Context, projectID, actorID string, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, invalid("task_ids: at least one id required")
	}
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	current, err := e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	inProject := make(map[string]bool, len(current))
	for _, t := range current {
		inProject[t.ID] = true
	}
	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if listed[id] {
			return nil, invalid("task_ids: duplicate id %s", id)
		}
		if !inProject[id] {
			return nil, invalid("task_ids: task %s not in project %s", id, projectID)
		}
		listed[id] = true
	}
	order := append([]string{}, ids...)
	for _, t := range current {
		if !listed[t.ID] {
			order = append(order, t.ID)
		}
	}

	now := e.stamp()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i, id := range order {
		if err := e.Repo.SetTaskOrder(ctx, tx, id, projectID, i, now); err != nil {
			return nil, err
		}
	}
	if err := e.Events.Append(ctx, tx, events.TasksReordered, projectID, "project", projectID, actorID, events.Payload{
		"order": order,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e.Repo.ListTasks(ctx, repo.TaskFilters{ProjectID: projectID})
}
