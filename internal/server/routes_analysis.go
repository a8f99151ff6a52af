package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"goalplanner/internal/analysis"
	"goalplanner/internal/domain"
)

func registerAnalysis(api huma.API, a analysis.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-goal",
		Method:      http.MethodPost,
		Path:        "/ai/analyze-goal",
		Summary:     "Break a goal down into a project analysis and tasks",
		Description: "Falls back to a template breakdown when the model is unavailable or its reply cannot be used.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		Body AnalyzeGoalRequest `json:"body"`
	}) (*struct {
		Body analysis.Outcome `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		out, err := a.Analyze(ctx, analysis.Request{
			Goal:    input.Body.Goal,
			Context: input.Body.Context,
			UserID:  userID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body analysis.Outcome `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-analysis-sessions",
		Method:      http.MethodGet,
		Path:        "/ai/sessions",
		Summary:     "Recent analysis sessions, newest first",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"20" minimum:"1" maximum:"20"`
	}) (*struct {
		Body sessionList `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := a.ListSessions(ctx, userID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body sessionList `json:"body"`
		}{Body: sessionList{Items: nonNilSlice(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-analysis-session",
		Method:      http.MethodGet,
		Path:        "/ai/sessions/{session_id}",
		Summary:     "One analysis session with its prompt and raw model reply",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body domain.AnalysisSession `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		sess, err := a.GetSession(ctx, userID, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AnalysisSession `json:"body"`
		}{Body: sess}, nil
	})
}
