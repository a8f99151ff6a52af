package engine_test

import (
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"goalplanner/internal/db"
	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/engine/auth"
	"goalplanner/internal/events"
	"goalplanner/internal/migrate"
	"goalplanner/internal/plan"
	"goalplanner/internal/repo"
)

type testEnv struct {
	Engine  engine.Engine
	Ctx     context.Context
	Clock   *time.Time
	Project domain.Project
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	if err := migrate.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	eng.Now = func() time.Time { return clock }
	if err := eng.Repo.InsertUser(ctx, nil, domain.User{ID: "user-1", Email: "owner@example.com", CreatedAt: clock.Format(time.RFC3339)}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	p, err := eng.CreateProject(ctx, engine.ProjectCreateOptions{UserID: "user-1", Title: "Novel", Goal: "Write a novel"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Clock: &clock, Project: p}
}

func (env testEnv) addTasks(t *testing.T, titles ...string) []domain.Task {
	t.Helper()
	var out []domain.Task
	for _, title := range titles {
		task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: env.Project.ID, Title: title, ActorID: "user-1"})
		if err != nil {
			t.Fatalf("create task %s: %v", title, err)
		}
		out = append(out, task)
	}
	return out
}

func (env testEnv) progress(t *testing.T) int {
	t.Helper()
	p, err := env.Engine.Repo.GetProject(env.Ctx, env.Project.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	return p.Progress
}

func (env testEnv) setStatus(t *testing.T, id, status string) domain.Task {
	t.Helper()
	task, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: id, Status: &status, ActorID: "user-1"})
	if err != nil {
		t.Fatalf("set status %s: %v", status, err)
	}
	return task
}

func TestProjectDefaults(t *testing.T) {
	env := newTestEnv(t)
	if env.Project.Priority != domain.PriorityMedium || env.Project.Status != domain.ProjectPlanning || env.Project.Progress != 0 {
		t.Fatalf("unexpected defaults: %+v", env.Project)
	}
	_, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{UserID: "user-1", Title: "No goal"})
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error for missing goal, got %v", err)
	}
	_, err = env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{UserID: "user-1", Title: "x", Goal: "y", Priority: "URGENT"})
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error for bad priority, got %v", err)
	}
}

func TestProgressCascade(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.addTasks(t, "a", "b", "c", "d")
	if got := env.progress(t); got != 0 {
		t.Fatalf("progress = %d, want 0", got)
	}
	env.setStatus(t, tasks[0].ID, domain.TaskCompleted)
	if got := env.progress(t); got != 25 {
		t.Fatalf("progress = %d, want 25", got)
	}
	env.setStatus(t, tasks[1].ID, domain.TaskCompleted)
	if got := env.progress(t); got != 50 {
		t.Fatalf("progress = %d, want 50", got)
	}
	env.setStatus(t, tasks[1].ID, domain.TaskCancelled)
	if got := env.progress(t); got != 25 {
		t.Fatalf("progress = %d, want 25", got)
	}
	if err := env.Engine.DeleteTask(env.Ctx, tasks[3].ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if got := env.progress(t); got != 33 {
		t.Fatalf("progress = %d, want 33", got)
	}
	// a task created already completed counts immediately
	if _, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: env.Project.ID, Title: "e", Status: domain.TaskCompleted}); err != nil {
		t.Fatal(err)
	}
	if got := env.progress(t); got != 50 {
		t.Fatalf("progress = %d, want 50", got)
	}
}

func TestConcurrentStatusWritesConverge(t *testing.T) {
	env := newTestEnv(t)
	titles := make([]string, 12)
	for i := range titles {
		titles[i] = fmt.Sprintf("task %d", i)
	}
	tasks := env.addTasks(t, titles...)

	var wg sync.WaitGroup
	errs := make(chan error, len(tasks))
	for _, task := range tasks {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			status := domain.TaskCompleted
			if _, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: id, Status: &status, ActorID: "user-1"}); err != nil {
				errs <- err
			}
		}(task.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent update: %v", err)
	}

	items, err := env.Engine.ListTasks(env.Ctx, repo.TaskFilters{ProjectID: env.Project.ID, Status: domain.TaskCompleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != len(tasks) {
		t.Fatalf("completed tasks = %d, want %d", len(items), len(tasks))
	}
	if got := env.progress(t); got != 100 {
		t.Fatalf("progress = %d, want 100", got)
	}
}

func TestProgressRounding(t *testing.T) {
	cases := []struct{ completed, total, want int }{
		{0, 0, 0}, {0, 3, 0}, {1, 3, 33}, {2, 3, 67}, {1, 8, 13}, {3, 3, 100},
	}
	for _, c := range cases {
		if got := engine.Progress(c.completed, c.total); got != c.want {
			t.Fatalf("Progress(%d,%d) = %d, want %d", c.completed, c.total, got, c.want)
		}
	}
}

func TestRecomputeProgressMissingProject(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.RecomputeProgress(env.Ctx, "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompletionDateStampedOnce(t *testing.T) {
	env := newTestEnv(t)
	task := env.addTasks(t, "a")[0]
	if task.CompletionDate != nil {
		t.Fatalf("new task has completion date")
	}
	task = env.setStatus(t, task.ID, domain.TaskCompleted)
	if task.CompletionDate == nil || *task.CompletionDate != "2024-01-01T00:00:00Z" {
		t.Fatalf("completion date not stamped: %v", task.CompletionDate)
	}
	*env.Clock = env.Clock.Add(48 * time.Hour)
	env.setStatus(t, task.ID, domain.TaskInProgress)
	task = env.setStatus(t, task.ID, domain.TaskCompleted)
	if *task.CompletionDate != "2024-01-01T00:00:00Z" {
		t.Fatalf("completion date overwritten: %s", *task.CompletionDate)
	}
	clear := ""
	task, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, CompletionDate: &clear})
	if err != nil || task.CompletionDate != nil {
		t.Fatalf("clear completion date: %v %v", err, task.CompletionDate)
	}
	env.setStatus(t, task.ID, domain.TaskTodo)
	task = env.setStatus(t, task.ID, domain.TaskCompleted)
	if *task.CompletionDate != "2024-01-03T00:00:00Z" {
		t.Fatalf("completion date not restamped: %s", *task.CompletionDate)
	}
}

func TestStatusTransitionsAreUnconstrained(t *testing.T) {
	env := newTestEnv(t)
	task := env.addTasks(t, "a")[0]
	for _, s := range []string{domain.TaskCancelled, domain.TaskReview, domain.TaskTodo, domain.TaskCompleted, domain.TaskInProgress} {
		if got := env.setStatus(t, task.ID, s); got.Status != s {
			t.Fatalf("status = %s, want %s", got.Status, s)
		}
	}
	bad := "DONE"
	if _, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: task.ID, Status: &bad}); !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTaskFieldValidation(t *testing.T) {
	env := newTestEnv(t)
	conf := 1.5
	cases := []engine.TaskCreateOptions{
		{ProjectID: env.Project.ID, Title: "   "},
		{ProjectID: env.Project.ID, Title: "a", EstimatedHours: -1},
		{ProjectID: env.Project.ID, Title: "a", AIConfidence: &conf},
		{ProjectID: env.Project.ID, Title: "a", DueDate: "next week"},
		{ProjectID: env.Project.ID, Title: "a", Resources: []domain.Resource{{URL: "https://example.com"}}},
	}
	for i, c := range cases {
		if _, err := env.Engine.CreateTask(env.Ctx, c); !engine.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: "missing", Title: "a"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for missing project, got %v", err)
	}
}

func TestParentHierarchy(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.addTasks(t, "root", "child", "grandchild")
	mustParent := func(id, parent string) error {
		_, err := env.Engine.UpdateTask(env.Ctx, engine.TaskUpdateOptions{ID: id, SetParent: &parent})
		return err
	}
	if err := mustParent(tasks[1].ID, tasks[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := mustParent(tasks[2].ID, tasks[1].ID); err != nil {
		t.Fatal(err)
	}
	if err := mustParent(tasks[0].ID, tasks[2].ID); !engine.IsValidation(err) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
	if err := mustParent(tasks[0].ID, tasks[0].ID); !engine.IsValidation(err) {
		t.Fatalf("expected self-parent rejection, got %v", err)
	}

	other, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{UserID: "user-1", Title: "Other", Goal: "Other goal"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{ProjectID: other.ID, Title: "x", ParentTaskID: tasks[0].ID})
	if !engine.IsValidation(err) {
		t.Fatalf("expected cross-project parent rejection, got %v", err)
	}

	// deleting a parent orphans its children
	if err := env.Engine.DeleteTask(env.Ctx, tasks[1].ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	gc, err := env.Engine.GetTask(env.Ctx, tasks[2].ID)
	if err != nil || gc.ParentTaskID != nil {
		t.Fatalf("grandchild parent = %v, err %v", gc.ParentTaskID, err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.addTasks(t, "a", "b")
	if err := env.Engine.DeleteProject(env.Ctx, env.Project.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	for _, task := range tasks {
		if _, err := env.Engine.GetTask(env.Ctx, task.ID); !errors.Is(err, repo.ErrNotFound) {
			t.Fatalf("task %s survived project delete: %v", task.ID, err)
		}
	}
	if err := env.Engine.DeleteProject(env.Ctx, env.Project.ID, "user-1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, repo.EventFilters{ProjectID: env.Project.ID, Limit: 1})
	if err != nil || len(evts) != 1 || evts[0].Type != events.ProjectDeleted {
		t.Fatalf("expected project.deleted event, got %v %v", evts, err)
	}
}

func TestReorderTasks(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.addTasks(t, "a", "b", "c", "d")
	for i, task := range tasks {
		if task.Order != i {
			t.Fatalf("task %s order = %d, want %d", task.Title, task.Order, i)
		}
	}
	got, err := env.Engine.ReorderTasks(env.Ctx, env.Project.ID, "user-1", []string{tasks[2].ID, tasks[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"c", "a", "b", "d"}
	for i, task := range got {
		if task.Title != want[i] || task.Order != i {
			t.Fatalf("position %d = %s/%d, want %s/%d", i, task.Title, task.Order, want[i], i)
		}
	}
	if _, err := env.Engine.ReorderTasks(env.Ctx, env.Project.ID, "user-1", []string{tasks[0].ID, tasks[0].ID}); !engine.IsValidation(err) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := env.Engine.ReorderTasks(env.Ctx, env.Project.ID, "user-1", []string{"ghost"}); !engine.IsValidation(err) {
		t.Fatalf("expected foreign id rejection, got %v", err)
	}
}

func TestUpdateProjectLeavesProgressAlone(t *testing.T) {
	env := newTestEnv(t)
	tasks := env.addTasks(t, "a", "b")
	env.setStatus(t, tasks[0].ID, domain.TaskCompleted)
	title := "Renamed"
	status := domain.ProjectInProgress
	p, err := env.Engine.UpdateProject(env.Ctx, engine.ProjectUpdateOptions{ID: env.Project.ID, Title: &title, Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Renamed" || p.Status != domain.ProjectInProgress || p.Progress != 50 {
		t.Fatalf("unexpected project: %+v", p)
	}
	blank := " "
	if _, err := env.Engine.UpdateProject(env.Ctx, engine.ProjectUpdateOptions{ID: env.Project.ID, Title: &blank}); !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProjectWithTasksFromPlan(t *testing.T) {
	env := newTestEnv(t)
	high := 0.9
	result := plan.Result{
		ProjectAnalysis: plan.Analysis{GoalClarity: 0.7, ComplexityLevel: "medium", EstimatedTotalTime: 10},
		Tasks: []plan.Task{
			{Title: "Research", Priority: "high", EstimatedHours: 4, AIConfidence: &high, ResourcesNeeded: []string{"Library card"}},
			{Title: "Write", Priority: "whenever", EstimatedHours: 6, AIConfidence: nil, Dependencies: []string{" research ", "Coffee"}},
		},
	}
	detail, err := env.Engine.CreateProjectWithTasks(env.Ctx, engine.PlanOptions{UserID: "user-1", Goal: "Write a short story", Result: &result})
	if err != nil {
		t.Fatal(err)
	}
	p := detail.Project
	if p.Title != "Write a short story" || p.AIAnalysis == nil || p.AIAnalysis.EstimatedTotalTime != 10 {
		t.Fatalf("unexpected project: %+v", p)
	}
	if len(detail.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(detail.Tasks))
	}
	research, write := detail.Tasks[0], detail.Tasks[1]
	if research.Priority != domain.PriorityHigh || write.Priority != domain.PriorityMedium {
		t.Fatalf("priorities = %s/%s", research.Priority, write.Priority)
	}
	if !research.AIGenerated || research.AIConfidence == nil || *research.AIConfidence != 0.9 {
		t.Fatalf("ai fields not carried: %+v", research)
	}
	if write.AIConfidence != nil {
		t.Fatalf("missing confidence should stay null, got %v", *write.AIConfidence)
	}
	if len(research.Resources) != 1 || research.Resources[0].Name != "Library card" {
		t.Fatalf("resources = %+v", research.Resources)
	}
	if len(write.Dependencies) != 2 || write.Dependencies[0] != research.ID || write.Dependencies[1] != "Coffee" {
		t.Fatalf("dependencies = %v", write.Dependencies)
	}
	if research.Order != 0 || write.Order != 1 {
		t.Fatalf("orders = %d/%d", research.Order, write.Order)
	}
}

func TestCreateProjectWithFallbackTemplate(t *testing.T) {
	env := newTestEnv(t)
	result := plan.Synthesize("Launch a mobile app in 8 weeks")
	detail, err := env.Engine.CreateProjectWithTasks(env.Ctx, engine.PlanOptions{UserID: "user-1", Goal: "Launch a mobile app in 8 weeks", Result: &result})
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Tasks) != 6 || detail.Project.Progress != 0 {
		t.Fatalf("unexpected detail: %d tasks, progress %d", len(detail.Tasks), detail.Project.Progress)
	}
	got, err := env.Engine.GetProject(env.Ctx, detail.Project.ID)
	if err != nil || len(got.Tasks) != 6 {
		t.Fatalf("get project: %v", err)
	}
}

func TestOwnership(t *testing.T) {
	env := newTestEnv(t)
	task := env.addTasks(t, "a")[0]
	svc := env.Engine.Auth
	if _, err := svc.RequireProjectOwner(env.Ctx, env.Project.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	var forbidden auth.ForbiddenError
	if _, err := svc.RequireProjectOwner(env.Ctx, env.Project.ID, "user-2"); !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.RequireTaskOwner(env.Ctx, task.ID, "user-2"); !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.RequireProjectOwner(env.Ctx, "missing", "user-1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEventsAppendedOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	task := env.addTasks(t, "a")[0]
	env.setStatus(t, task.ID, domain.TaskCompleted)
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, repo.EventFilters{ProjectID: env.Project.ID})
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	for _, e := range evts {
		types = append(types, e.Type)
	}
	want := []string{events.ProjectProgress, events.TaskUpdated, events.TaskCreated, events.ProjectCreated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
}
