package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"goalplanner/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r Repo) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const projectColumns = `id,user_id,title,COALESCE(description,''),goal,deadline,priority,status,ai_analysis_json,progress,tags_json,created_at,updated_at`

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var deadline, analysis sql.NullString
	var tags string
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Goal, &deadline, &p.Priority, &p.Status, &analysis, &p.Progress, &tags, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if deadline.Valid {
		p.Deadline = &deadline.String
	}
	if analysis.Valid && analysis.String != "" {
		var a domain.AIAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return p, fmt.Errorf("decode ai analysis for project %s: %w", p.ID, err)
		}
		p.AIAnalysis = &a
	}
	p.Tags, err = decodeStrings(tags)
	return p, err
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	analysis, err := encodeAnalysis(p.AIAnalysis)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO projects(id,user_id,title,description,goal,deadline,priority,status,ai_analysis_json,progress,tags_json,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Title, nullable(p.Description), p.Goal, nullableStringPtr(p.Deadline), p.Priority, p.Status,
		analysis, p.Progress, tags, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	return scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

type ProjectFilters struct {
	UserID          string
	Status          string
	Limit           int
	CursorUpdatedAt string
	CursorID        string
}

// ListProjects returns projects newest-updated first.
func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.UserID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.CursorUpdatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(updated_at < ? OR (updated_at = ? AND id < ?))")
		args = append(args, f.CursorUpdatedAt, f.CursorUpdatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + projectColumns + ` FROM projects ` + where + ` ORDER BY updated_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpdateProject writes every mutable project column. Progress is owned by
// SetProjectProgress and is not touched here.
func (r Repo) UpdateProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	analysis, err := encodeAnalysis(p.AIAnalysis)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(p.Tags)
	if err != nil {
		return err
	}
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET title=?, description=?, goal=?, deadline=?, priority=?, status=?, ai_analysis_json=?, tags_json=?, updated_at=? WHERE id=?`,
		p.Title, nullable(p.Description), p.Goal, nullableStringPtr(p.Deadline), p.Priority, p.Status, analysis, tags, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProjectProgress persists a recomputed progress value.
func (r Repo) SetProjectProgress(ctx context.Context, tx *sql.Tx, projectID string, progress int, updatedAt string) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET progress=?, updated_at=? WHERE id=?`, progress, updatedAt, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountTasksByStatus returns the total and completed task counts of a project.
func (r Repo) CountTasksByStatus(ctx context.Context, tx *sql.Tx, projectID string) (total, completed int, err error) {
	err = r.q(tx).QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status=? THEN 1 ELSE 0 END),0) FROM tasks WHERE project_id=?`,
		domain.TaskCompleted, projectID).Scan(&total, &completed)
	return total, completed, err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func encodeStrings(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	return string(b), err
}

func decodeStrings(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return out, nil
}

func encodeAnalysis(a *domain.AIAnalysis) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
