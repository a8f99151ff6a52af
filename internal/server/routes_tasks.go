package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/repo"
)

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/tasks",
		Summary:     "List a project's tasks in display order",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Status    string `query:"status" enum:"TODO,IN_PROGRESS,REVIEW,COMPLETED,CANCELLED"`
		Priority  string `query:"priority" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
		Parent    string `query:"parent_task_id"`
	}) (*struct {
		Body taskList `json:"body"`
	}, error) {
		if _, err := requireProject(ctx, e, input.ProjectID); err != nil {
			return nil, err
		}
		items, err := e.ListTasks(ctx, repo.TaskFilters{
			ProjectID: input.ProjectID,
			Status:    input.Status,
			Priority:  input.Priority,
			Parent:    input.Parent,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body taskList `json:"body"`
		}{Body: taskList{Items: nonNilSlice(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		Description:   "Appends after the project's last task unless order is given. The project's progress is recomputed.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		userID, err := requireProject(ctx, e, input.Body.ProjectID)
		if err != nil {
			return nil, err
		}
		t, err := e.CreateTask(ctx, input.Body.TaskFields.options(input.Body.ProjectID, userID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "bulk-create-tasks",
		Method:        http.MethodPost,
		Path:          "/tasks/bulk",
		Summary:       "Create several tasks in one transaction",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body BulkCreateTasksRequest `json:"body"`
	}) (*struct {
		Body taskList `json:"body"`
	}, error) {
		userID, err := requireProject(ctx, e, input.Body.ProjectID)
		if err != nil {
			return nil, err
		}
		items, err := e.BulkCreateTasks(ctx, input.Body.ProjectID, userID, taskOptions(input.Body.Tasks, input.Body.ProjectID, userID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body taskList `json:"body"`
		}{Body: taskList{Items: nonNilSlice(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-tasks",
		Method:      http.MethodPut,
		Path:        "/tasks/reorder",
		Summary:     "Move the listed tasks to the front, in the given order",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body ReorderTasksRequest `json:"body"`
	}) (*struct {
		Body taskList `json:"body"`
	}, error) {
		userID, err := requireProject(ctx, e, input.Body.ProjectID)
		if err != nil {
			return nil, err
		}
		items, err := e.ReorderTasks(ctx, input.Body.ProjectID, userID, input.Body.TaskIDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body taskList `json:"body"`
		}{Body: taskList{Items: nonNilSlice(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		t, _, err := requireTask(ctx, e, input.TaskID)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Description: "A status change recomputes the project's progress. Null clears parent_task_id and the dates.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		_, userID, err := requireTask(ctx, e, input.TaskID)
		if err != nil {
			return nil, err
		}
		raw := rawBodyMap(ctx)
		b := input.Body
		t, err := e.UpdateTask(ctx, engine.TaskUpdateOptions{
			ID:             input.TaskID,
			ActorID:        userID,
			Title:          b.Title,
			Description:    b.Description,
			Priority:       b.Priority,
			Status:         b.Status,
			EstimatedHours: b.EstimatedHours,
			ActualHours:    b.ActualHours,
			StartDate:      clearedOr(raw, "start_date", b.StartDate),
			DueDate:        clearedOr(raw, "due_date", b.DueDate),
			CompletionDate: clearedOr(raw, "completion_date", b.CompletionDate),
			SetParent:      clearedOr(raw, "parent_task_id", b.ParentTaskID),
			AIConfidence:   b.AIConfidence,
			Dependencies:   b.Dependencies,
			Tags:           b.Tags,
			Resources:      b.Resources,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{task_id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		_, userID, err := requireTask(ctx, e, input.TaskID)
		if err != nil {
			return nil, err
		}
		if err := e.DeleteTask(ctx, input.TaskID, userID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
