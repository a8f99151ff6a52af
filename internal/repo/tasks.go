package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"goalplanner/internal/domain"
)

const taskColumns = `id,project_id,parent_task_id,title,COALESCE(description,''),priority,status,estimated_hours,actual_hours,start_date,due_date,completion_date,ai_generated,ai_confidence,dependencies_json,tags_json,resources_json,sort_order,created_at,updated_at`

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var parentID, startDate, dueDate, completionDate sql.NullString
	var confidence sql.NullFloat64
	var aiGenerated int
	var deps, tags, resources string
	err := row.Scan(&t.ID, &t.ProjectID, &parentID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.EstimatedHours, &t.ActualHours, &startDate, &dueDate, &completionDate, &aiGenerated, &confidence,
		&deps, &tags, &resources, &t.Order, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if parentID.Valid {
		t.ParentTaskID = &parentID.String
	}
	if startDate.Valid {
		t.StartDate = &startDate.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if completionDate.Valid {
		t.CompletionDate = &completionDate.String
	}
	if confidence.Valid {
		c := confidence.Float64
		t.AIConfidence = &c
	}
	t.AIGenerated = aiGenerated != 0
	if t.Dependencies, err = decodeStrings(deps); err != nil {
		return t, err
	}
	if t.Tags, err = decodeStrings(tags); err != nil {
		return t, err
	}
	t.Resources = []domain.Resource{}
	if resources != "" {
		if err := json.Unmarshal([]byte(resources), &t.Resources); err != nil {
			return t, fmt.Errorf("decode resources for task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

type taskJSON struct {
	deps, tags, resources string
}

func encodeTaskJSON(t domain.Task) (taskJSON, error) {
	var out taskJSON
	var err error
	if out.deps, err = encodeStrings(t.Dependencies); err != nil {
		return out, err
	}
	if out.tags, err = encodeStrings(t.Tags); err != nil {
		return out, err
	}
	res := t.Resources
	if res == nil {
		res = []domain.Resource{}
	}
	b, err := json.Marshal(res)
	if err != nil {
		return out, err
	}
	out.resources = string(b)
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	enc, err := encodeTaskJSON(t)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO tasks(id,project_id,parent_task_id,title,description,priority,status,estimated_hours,actual_hours,start_date,due_date,completion_date,ai_generated,ai_confidence,dependencies_json,tags_json,resources_json,sort_order,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ProjectID, nullableStringPtr(t.ParentTaskID), t.Title, nullable(t.Description), t.Priority, t.Status,
		t.EstimatedHours, t.ActualHours, nullableStringPtr(t.StartDate), nullableStringPtr(t.DueDate), nullableStringPtr(t.CompletionDate),
		boolInt(t.AIGenerated), nullableFloatPtr(t.AIConfidence), enc.deps, enc.tags, enc.resources, t.Order, t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateTask writes every mutable task column; project_id is immutable.
func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	enc, err := encodeTaskJSON(t)
	if err != nil {
		return err
	}
	res, err := r.q(tx).ExecContext(ctx, `UPDATE tasks SET parent_task_id=?, title=?, description=?, priority=?, status=?, estimated_hours=?, actual_hours=?, start_date=?, due_date=?, completion_date=?, ai_generated=?, ai_confidence=?, dependencies_json=?, tags_json=?, resources_json=?, sort_order=?, updated_at=? WHERE id=?`,
		nullableStringPtr(t.ParentTaskID), t.Title, nullable(t.Description), t.Priority, t.Status, t.EstimatedHours, t.ActualHours,
		nullableStringPtr(t.StartDate), nullableStringPtr(t.DueDate), nullableStringPtr(t.CompletionDate), boolInt(t.AIGenerated),
		nullableFloatPtr(t.AIConfidence), enc.deps, enc.tags, enc.resources, t.Order, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	return scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id))
}

func (r Repo) DeleteTask(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type TaskFilters struct {
	ProjectID string
	Status    string
	Parent    string
	Priority  string
}

// ListTasks returns tasks in display order: order, then creation.
func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Parent != "" {
		clauses = append(clauses, "parent_task_id=?")
		args = append(args, f.Parent)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks `+where+` ORDER BY sort_order ASC, created_at ASC, rowid ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// NextTaskOrder returns the order value that appends after the project's last task.
func (r Repo) NextTaskOrder(ctx context.Context, tx *sql.Tx, projectID string) (int, error) {
	var next int
	err := r.q(tx).QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order)+1, 0) FROM tasks WHERE project_id=?`, projectID).Scan(&next)
	return next, err
}

func (r Repo) SetTaskOrder(ctx context.Context, tx *sql.Tx, id, projectID string, order int, updatedAt string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE tasks SET sort_order=?, updated_at=? WHERE id=? AND project_id=?`, order, updatedAt, id, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// TaskParent returns the parent id of a task, or "" when it has none.
func (r Repo) TaskParent(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	var parent sql.NullString
	err := r.q(tx).QueryRowContext(ctx, `SELECT parent_task_id FROM tasks WHERE id=?`, id).Scan(&parent)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return parent.String, nil
}
