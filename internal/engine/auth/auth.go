package auth

import (
	"context"
	"errors"
	"fmt"

	"goalplanner/internal/domain"
	"goalplanner/internal/repo"
)

// Permissions named in ForbiddenError.
const (
	PermProjectOwner = "project.owner"
	PermTaskOwner    = "task.owner"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Service answers ownership questions. Users own their projects, and a
// project's tasks inherit that ownership.
type Service struct {
	Repo repo.Repo
}

// RequireProjectOwner loads the project and checks that userID owns it.
// Unknown projects surface as repo.ErrNotFound.
func (s Service) RequireProjectOwner(ctx context.Context, projectID, userID string) (domain.Project, error) {
	if userID == "" {
		return domain.Project{}, errors.New("user_id required")
	}
	p, err := s.Repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if p.UserID != userID {
		return domain.Project{}, ForbiddenError{Permission: PermProjectOwner}
	}
	return p, nil
}

// RequireTaskOwner loads the task and checks that userID owns its project.
func (s Service) RequireTaskOwner(ctx context.Context, taskID, userID string) (domain.Task, error) {
	if userID == "" {
		return domain.Task{}, errors.New("user_id required")
	}
	t, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	p, err := s.Repo.GetProject(ctx, t.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if p.UserID != userID {
		return domain.Task{}, ForbiddenError{Permission: PermTaskOwner}
	}
	return t, nil
}
