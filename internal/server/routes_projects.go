package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"goalplanner/internal/analysis"
	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/plan"
	"goalplanner/internal/repo"
)

func registerProjects(api huma.API, e engine.Engine, a analysis.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List the caller's projects, most recently updated first",
		Errors:      []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"PLANNING,IN_PROGRESS,PAUSED,COMPLETED,CANCELLED"`
		Limit  int    `query:"limit" default:"50"`
		Cursor string `query:"cursor"`
	}) (*struct {
		Body paginatedProjects `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		cursorTS, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		limit := normalizeLimit(input.Limit)
		items, err := e.ListProjects(ctx, repo.ProjectFilters{
			UserID:          userID,
			Status:          input.Status,
			Limit:           limit + 1,
			CursorUpdatedAt: cursorTS,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedProjects{Items: nonNilSlice(items)}
		if len(items) > limit {
			last := items[limit-1]
			resp.NextCursor = composeCursor(last.UpdatedAt, last.ID)
			resp.Items = items[:limit]
		}
		return &struct {
			Body paginatedProjects `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreateProject(ctx, engine.ProjectCreateOptions{
			UserID:      userID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Goal:        input.Body.Goal,
			Deadline:    input.Body.Deadline,
			Priority:    input.Body.Priority,
			Status:      input.Body.Status,
			AIAnalysis:  input.Body.AIAnalysis,
			Tags:        input.Body.Tags,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-project-with-tasks",
		Method:        http.MethodPost,
		Path:          "/projects/with-tasks",
		Summary:       "Create a project and its tasks",
		Description:   "Uses the supplied tasks or breakdown; with neither, the goal is analyzed first.",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectWithTasksRequest `json:"body"`
	}) (*struct {
		Body ProjectWithTasksResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		in := input.Body
		opts := engine.PlanOptions{
			UserID:      userID,
			Goal:        in.Goal,
			Title:       in.Title,
			Description: in.Description,
			Deadline:    in.Deadline,
			Priority:    in.Priority,
			Tags:        in.Tags,
		}
		var outcome *analysis.Outcome
		switch {
		case len(in.Tasks) > 0:
			opts.Tasks = taskOptions(in.Tasks, "", userID)
		case in.Analysis != nil || len(in.PlanTasks) > 0:
			r := planResult(in.Analysis, in.PlanTasks)
			opts.Result = &r
		default:
			out, err := a.Analyze(ctx, analysis.Request{Goal: in.Goal, Context: in.Context, UserID: userID})
			if err != nil {
				return nil, handleError(err)
			}
			r := plan.Result{ProjectAnalysis: out.Analysis, Tasks: out.Tasks}
			opts.Result = &r
			outcome = &out
		}
		detail, err := e.CreateProjectWithTasks(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectWithTasksResponse `json:"body"`
		}{Body: ProjectWithTasksResponse{
			Project:  detail.Project,
			Tasks:    nonNilSlice(detail.Tasks),
			Analysis: outcome,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project with its tasks",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body engine.ProjectDetail `json:"body"`
	}, error) {
		if _, err := requireProject(ctx, e, input.ProjectID); err != nil {
			return nil, err
		}
		detail, err := e.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		detail.Tasks = nonNilSlice(detail.Tasks)
		return &struct {
			Body engine.ProjectDetail `json:"body"`
		}{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Description: "Progress is derived from task statuses and cannot be written. A null deadline clears it.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		userID, err := requireProject(ctx, e, input.ProjectID)
		if err != nil {
			return nil, err
		}
		raw := rawBodyMap(ctx)
		p, err := e.UpdateProject(ctx, engine.ProjectUpdateOptions{
			ID:          input.ProjectID,
			ActorID:     userID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Goal:        input.Body.Goal,
			Deadline:    clearedOr(raw, "deadline", input.Body.Deadline),
			Priority:    input.Body.Priority,
			Status:      input.Body.Status,
			Tags:        input.Body.Tags,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{project_id}",
		Summary:       "Delete project and its tasks",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		userID, err := requireProject(ctx, e, input.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := e.DeleteProject(ctx, input.ProjectID, userID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recompute-progress",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/progress/recompute",
		Summary:     "Recount completed tasks and store the project's progress",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProgressResponse `json:"body"`
	}, error) {
		if _, err := requireProject(ctx, e, input.ProjectID); err != nil {
			return nil, err
		}
		progress, err := e.RecomputeProgress(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProgressResponse `json:"body"`
		}{Body: ProgressResponse{ProjectID: input.ProjectID, Progress: progress}}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID  string `path:"project_id"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"project,task"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		if _, err := requireProject(ctx, e, input.ProjectID); err != nil {
			return nil, err
		}
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.Repo.LatestEvents(ctx, repo.EventFilters{
			ProjectID:  input.ProjectID,
			Type:       input.Type,
			EntityKind: input.EntityKind,
			EntityID:   input.EntityID,
			BeforeID:   cursorID,
			Limit:      limit + 1,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = fmt.Sprintf("%d", items[limit-1].ID)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}
