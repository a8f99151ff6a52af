package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"

	"goalplanner/internal/app"
	"goalplanner/internal/domain"
	"goalplanner/internal/logging"
	goalplannersdk "goalplanner/sdk/go"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	a, err := app.Open(context.Background(), app.Options{
		Workspace: t.TempDir(),
		Logger:    logging.Discard(),
	})
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	handler, err := New(Config{
		Engine:   a.Engine,
		Analyzer: a.Analyzer,
		Users:    a,
		Auth:     AuthConfig{JWTSecret: "test-secret"},
		Logger:   logging.Discard(),
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			a.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func login(t *testing.T, srv *testServer, email string) map[string]string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/auth/login", map[string]any{"email": email}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(data))
	}
	var tok TokenResponse
	if err := json.Unmarshal(data, &tok); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if tok.Token == "" || tok.User.Email != email {
		t.Fatalf("unexpected token response: %+v", tok)
	}
	return map[string]string{"Authorization": "Bearer " + tok.Token}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return env.Error.Code
}

func newSDK(t *testing.T, srv *testServer, email string) *goalplannersdk.Client {
	t.Helper()
	c := goalplannersdk.New(srv.URL)
	if _, err := c.Login(context.Background(), email, ""); err != nil {
		t.Fatalf("sdk login: %v", err)
	}
	return c
}

func TestNewBuildsHandler(t *testing.T) {
	a, err := app.Open(context.Background(), app.Options{InMemory: true, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	defer a.Close()

	handler, err := New(Config{Engine: a.Engine, Analyzer: a.Analyzer, Users: a, Auth: AuthConfig{JWTSecret: "s"}})
	if err != nil || handler == nil {
		t.Fatalf("new: handler=%v err=%v", handler, err)
	}
	if _, err := New(Config{Engine: a.Engine, Analyzer: a.Analyzer}); err == nil {
		t.Fatalf("expected an error without a user store")
	}
}

func TestPlanAndEntitySchemasAreDistinct(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d: %s", res.StatusCode, string(data))
	}
	var doc struct {
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	for _, name := range []string{"Task", "PlanTask", "PlanAnalysis"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Fatalf("schema %s missing", name)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/projects", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %q", code)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/me", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	if res.StatusCode != http.StatusUnauthorized || errorCode(t, data) != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %d: %s", res.StatusCode, string(data))
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register", map[string]any{"email": "ada@example.com", "name": "Ada"}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register", map[string]any{"email": "ADA@example.com"}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d: %s", res.StatusCode, string(data))
	}

	headers := login(t, srv, "ada@example.com")
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/me", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.User.Name != "Ada" || me.Source != sourceJWT {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv, "keys@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/api-keys", map[string]any{"name": "ci"}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key status %d: %s", res.StatusCode, string(data))
	}
	var key APIKeyResponse
	if err := json.Unmarshal(data, &key); err != nil {
		t.Fatalf("unmarshal key: %v", err)
	}
	if len(key.Key) < len(apiKeyPrefix)+1 || key.Key[:len(apiKeyPrefix)] != apiKeyPrefix {
		t.Fatalf("unexpected key %q", key.Key)
	}

	keyHeaders := map[string]string{"X-Api-Key": key.Key}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/me", nil, keyHeaders)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me via key status %d: %s", res.StatusCode, string(data))
	}
	var me MeResponse
	_ = json.Unmarshal(data, &me)
	if me.Source != sourceAPIKey || me.User.Email != "keys@example.com" {
		t.Fatalf("unexpected me via key: %+v", me)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/auth/api-keys", nil, headers)
	var listed []APIKeyResponse
	if err := json.Unmarshal(data, &listed); err != nil || len(listed) != 1 || listed[0].Key != "" {
		t.Fatalf("unexpected key listing %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/api/auth/api-keys/"+key.ID, nil, headers)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete key status %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/me", nil, keyHeaders)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked key still accepted: %d", res.StatusCode)
	}
}

func TestAnalyzeGoalFallsBackAndRecordsSession(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := newSDK(t, srv, "planner@example.com")

	out, err := c.AnalyzeGoal(ctx, "Build a mobile app for runners", map[string]any{"team": 2})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out.Source != "fallback" || len(out.Tasks) != 6 || out.Analysis.EstimatedTotalTime != 480 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.SessionID == "" {
		t.Fatalf("expected a session id")
	}

	sessions, err := c.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != out.SessionID || !sessions[0].Success || sessions[0].TasksGenerated != 6 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	other := newSDK(t, srv, "other@example.com")
	theirs, err := other.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("other sessions: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("sessions leaked across users: %+v", theirs)
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/ai/sessions/"+out.SessionID, nil, map[string]string{"Authorization": "Bearer " + c.BearerToken})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get session %d: %s", res.StatusCode, string(data))
	}
	var sess domain.AnalysisSession
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if sess.ModelUsed != "fallback" || sess.ModelResponseRaw == "" {
		t.Fatalf("unexpected session detail: %+v", sess)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/ai/sessions/"+out.SessionID, nil, map[string]string{"Authorization": "Bearer " + other.BearerToken})
	if res.StatusCode != http.StatusNotFound || errorCode(t, data) != "not_found" {
		t.Fatalf("foreign session status %d: %s", res.StatusCode, string(data))
	}
}

func TestAnalyzeGoalRejectsShortGoal(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "short@example.com")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/ai/analyze-goal", map[string]any{"goal": " abc "}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "invalid_goal" {
		t.Fatalf("expected invalid_goal, got %q", code)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/ai/sessions", nil, headers)
	var sessions sessionList
	if err := json.Unmarshal(data, &sessions); err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("list sessions %d: %s", res.StatusCode, string(data))
	}
	if len(sessions.Items) != 0 {
		t.Fatalf("short goal wrote a session: %+v", sessions.Items)
	}
}

func TestCreateWithTasksAndProgressCascade(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := newSDK(t, srv, "novelist@example.com")

	detail, err := c.CreateProjectWithTasks(ctx, goalplannersdk.CreatePlanRequest{Goal: "Write a novel this year"})
	if err != nil {
		t.Fatalf("create with tasks: %v", err)
	}
	if detail.Analysis == nil || detail.Analysis.Source != "fallback" {
		t.Fatalf("expected server-side analysis, got %+v", detail.Analysis)
	}
	if len(detail.Tasks) != 5 || detail.Project.Progress != 0 || detail.Project.AIAnalysis == nil {
		t.Fatalf("unexpected project: %+v", detail)
	}
	if detail.Project.Title != "Write a novel this year" {
		t.Fatalf("expected title derived from goal, got %q", detail.Project.Title)
	}
	for i, task := range detail.Tasks {
		if task.Order != i || !task.AIGenerated {
			t.Fatalf("task %d: unexpected order/ai flag: %+v", i, task)
		}
	}

	done, err := c.UpdateTaskStatus(ctx, detail.Tasks[0].ID, domain.TaskCompleted)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if done.CompletionDate == nil {
		t.Fatalf("expected completion date on first completion")
	}
	got, err := c.GetProject(ctx, detail.Project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Project.Progress != 20 {
		t.Fatalf("expected progress 20, got %d", got.Project.Progress)
	}

	if _, err := c.UpdateTaskStatus(ctx, detail.Tasks[0].ID, domain.TaskTodo); err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	got, _ = c.GetProject(ctx, detail.Project.ID)
	if got.Project.Progress != 0 {
		t.Fatalf("expected progress back to 0, got %d", got.Project.Progress)
	}

	page, err := c.EventsPage(ctx, detail.Project.ID, 2, "")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected a full first page with a cursor: %+v", page)
	}
	if page.Items[0].Type != "project.progress" || page.Items[0].Payload["to"] != float64(0) {
		t.Fatalf("expected latest event to be the progress change, got %+v", page.Items[0])
	}
	next, err := c.EventsPage(ctx, detail.Project.ID, 2, page.NextCursor)
	if err != nil {
		t.Fatalf("events page 2: %v", err)
	}
	if len(next.Items) == 0 || next.Items[0].ID >= page.Items[1].ID {
		t.Fatalf("second page did not continue after the first: %+v", next)
	}
}

func TestCreateWithExplicitBreakdown(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	c := newSDK(t, srv, "explicit@example.com")

	detail, err := c.CreateProjectWithTasks(context.Background(), goalplannersdk.CreatePlanRequest{
		Goal:     "Plan a garden",
		Title:    "Garden",
		Analysis: &goalplannersdk.Analysis{GoalClarity: 0.9, ComplexityLevel: "low", EstimatedTotalTime: 6},
		PlanTasks: []goalplannersdk.PlanTask{
			{Title: "Pick plants", Priority: "high", EstimatedHours: 2},
			{Title: "Dig beds", EstimatedHours: 4, Dependencies: []string{"pick plants", "rent a tiller"}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.Analysis != nil {
		t.Fatalf("no analysis should run when a breakdown is supplied")
	}
	if len(detail.Tasks) != 2 || detail.Tasks[0].Priority != domain.PriorityHigh {
		t.Fatalf("unexpected tasks: %+v", detail.Tasks)
	}
	deps := detail.Tasks[1].Dependencies
	if len(deps) != 2 || deps[0] != detail.Tasks[0].ID || deps[1] != "rent a tiller" {
		t.Fatalf("unexpected dependencies: %v", deps)
	}
}

func TestOwnershipAndNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	owner := login(t, srv, "owner@example.com")
	stranger := login(t, srv, "stranger@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{"title": "Private", "goal": "Keep this to myself"}, owner)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	if p.Priority != domain.PriorityMedium || p.Status != domain.ProjectPlanning {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/projects/"+p.ID, nil, stranger)
	if res.StatusCode != http.StatusForbidden || errorCode(t, data) != "forbidden" {
		t.Fatalf("expected 403, got %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{"project_id": p.ID, "title": "Sneak in"}, stranger)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 creating a task in another user's project, got %d", res.StatusCode)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/projects/missing", nil, owner)
	if res.StatusCode != http.StatusNotFound || errorCode(t, data) != "not_found" {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/projects", nil, stranger)
	var page paginatedProjects
	if err := json.Unmarshal(data, &page); err != nil || len(page.Items) != 0 {
		t.Fatalf("stranger should see no projects, got %d: %s", res.StatusCode, string(data))
	}
}

func TestTaskPatchAndValidation(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	headers := login(t, srv, "tasks@example.com")

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/projects", map[string]any{"title": "Move", "goal": "Move to a new flat"}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project status %d: %s", res.StatusCode, string(data))
	}
	var p domain.Project
	_ = json.Unmarshal(data, &p)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"project_id": p.ID,
		"title":      "Book movers",
		"due_date":   "2026-11-01",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}
	var task domain.Task
	_ = json.Unmarshal(data, &task)
	if task.DueDate == nil || task.Status != domain.TaskTodo {
		t.Fatalf("unexpected task: %+v", task)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/tasks/"+task.ID, map[string]any{"due_date": nil, "actual_hours": 1.5}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d: %s", res.StatusCode, string(data))
	}
	var patched domain.Task
	_ = json.Unmarshal(data, &patched)
	if patched.DueDate != nil || patched.ActualHours != 1.5 {
		t.Fatalf("expected due date cleared and hours set: %+v", patched)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{"project_id": p.ID, "title": "   "}, headers)
	if res.StatusCode != http.StatusBadRequest || errorCode(t, data) != "validation_failed" {
		t.Fatalf("expected validation_failed for blank title, got %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/tasks/"+task.ID, map[string]any{"status": "DONE"}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d: %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/api/tasks/"+task.ID, map[string]any{"ai_confidence": 1.5}, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for confidence above 1, got %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/api/tasks/"+task.ID, nil, headers)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete task status %d: %s", res.StatusCode, string(data))
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/"+task.ID, nil, headers)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.StatusCode)
	}
}

func TestSDKSurfacesAPIErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	c := newSDK(t, srv, "sdk@example.com")

	_, err := c.GetProject(context.Background(), "nope")
	var apiErr *goalplannersdk.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected APIError 404, got %v", err)
	}
}

func TestOpenAPIDocumentIsPublic(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d: %s", res.StatusCode, string(data))
	}
	var doc struct {
		Paths      map[string]map[string]json.RawMessage `json:"paths"`
		Components struct {
			SecuritySchemes map[string]json.RawMessage `json:"securitySchemes"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	if _, ok := doc.Paths["/api/ai/analyze-goal"]["post"]; !ok {
		t.Fatalf("analyze-goal missing from document")
	}
	if _, ok := doc.Components.SecuritySchemes["bearerAuth"]; !ok {
		t.Fatalf("bearer scheme missing: %s", string(data))
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	headers := login(t, srv, "big@example.com")

	body := map[string]any{"goal": "Plan a trip", "context": map[string]any{"notes": string(bytes.Repeat([]byte("x"), maxBodyBytes+64<<10))}}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/ai/analyze-goal", body, headers)
	if res.StatusCode != http.StatusRequestEntityTooLarge || errorCode(t, data) != "request_too_large" {
		t.Fatalf("oversized body status %d: %s", res.StatusCode, string(data))
	}
}
