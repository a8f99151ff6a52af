package engine

import (
	"context"
	"errors"
	"math"

	"goalplanner/internal/events"
	"goalplanner/internal/repo"
)

// Progress returns round(100*completed/total), or 0 for an empty project.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// RecomputeProgress recounts the project's tasks from scratch and persists
// the resulting percentage. Concurrent recomputes are last-write-wins.
func (e Engine) RecomputeProgress(ctx context.Context, projectID string) (int, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	p, err := e.Repo.GetProjectTx(ctx, tx, projectID)
	if err != nil {
		return 0, err
	}
	total, completed, err := e.Repo.CountTasksByStatus(ctx, tx, projectID)
	if err != nil {
		return 0, err
	}
	progress := Progress(completed, total)
	if progress == p.Progress {
		return progress, nil
	}
	if err := e.Repo.SetProjectProgress(ctx, tx, projectID, progress, e.stamp()); err != nil {
		return 0, err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectProgress, projectID, "project", projectID, "", events.Payload{
		"from":      p.Progress,
		"to":        progress,
		"completed": completed,
		"total":     total,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return progress, nil
}

// cascade runs after a committed task write. It never fails the write: a
// vanished project is a no-op and other errors are only logged.
func (e Engine) cascade(ctx context.Context, projectID string) {
	progress, err := e.RecomputeProgress(ctx, projectID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		e.logger().Debug("progress cascade skipped, project gone", "project_id", projectID)
	case err != nil:
		e.logger().Error("progress cascade failed", "project_id", projectID, "error", err)
	default:
		e.logger().Debug("progress recomputed", "project_id", projectID, "progress", progress)
	}
}
