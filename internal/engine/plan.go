package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"goalplanner/internal/domain"
	"goalplanner/internal/plan"
)

// PlanOptions create a project from a goal breakdown. When Result is nil the
// explicit Tasks are used instead.
type PlanOptions struct {
	UserID      string
	Goal        string
	Title       string
	Description string
	Deadline    string
	Priority    string
	Tags        []string
	Result      *plan.Result
	Tasks       []TaskCreateOptions
}

const maxDerivedTitle = 100

// CreateProjectWithTasks creates the project, then its tasks in one batch.
// The two steps are not atomic: if the tasks fail, the project stays and the
// returned error names it.
func (e Engine) CreateProjectWithTasks(ctx context.Context, opts PlanOptions) (ProjectDetail, error) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = deriveTitle(opts.Goal)
	}
	create := ProjectCreateOptions{
		UserID:      opts.UserID,
		Title:       title,
		Description: opts.Description,
		Goal:        opts.Goal,
		Deadline:    opts.Deadline,
		Priority:    opts.Priority,
		Tags:        opts.Tags,
	}
	batch := opts.Tasks
	if opts.Result != nil {
		a := AnalysisSnapshot(opts.Result.ProjectAnalysis)
		create.AIAnalysis = &a
		batch = TasksFromPlan(*opts.Result)
	}
	p, err := e.CreateProject(ctx, create)
	if err != nil {
		return ProjectDetail{}, err
	}
	tasks, err := e.BulkCreateTasks(ctx, p.ID, opts.UserID, batch)
	if err != nil {
		return ProjectDetail{Project: p}, fmt.Errorf("project %s created but its tasks were not: %w", p.ID, err)
	}
	if refreshed, err := e.Repo.GetProject(ctx, p.ID); err == nil {
		p = refreshed
	}
	return ProjectDetail{Project: p, Tasks: tasks}, nil
}

// AnalysisSnapshot copies the breakdown's summary onto the project.
func AnalysisSnapshot(a plan.Analysis) domain.AIAnalysis {
	return domain.AIAnalysis{
		GoalClarity:        a.GoalClarity,
		ComplexityLevel:    a.ComplexityLevel,
		EstimatedTotalTime: a.EstimatedTotalTime,
		KeyChallenges:      append([]string{}, a.KeyChallenges...),
		SuccessCriteria:    append([]string{}, a.SuccessCriteria...),
	}
}

// TasksFromPlan turns breakdown tasks into create options in generation
// order. A dependency naming another task of the batch by title (trimmed,
// case-insensitive) is rewritten to that task's id; anything else is kept
// as written.
func TasksFromPlan(r plan.Result) []TaskCreateOptions {
	ids := make([]string, len(r.Tasks))
	byTitle := make(map[string]string, len(r.Tasks))
	for i, t := range r.Tasks {
		ids[i] = uuid.NewString()
		key := titleKey(t.Title)
		if _, dup := byTitle[key]; !dup {
			byTitle[key] = ids[i]
		}
	}
	out := make([]TaskCreateOptions, 0, len(r.Tasks))
	aiGenerated := true
	for i, t := range r.Tasks {
		deps := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			if id, ok := byTitle[titleKey(d)]; ok {
				deps = append(deps, id)
			} else {
				deps = append(deps, d)
			}
		}
		resources := make([]domain.Resource, 0, len(t.ResourcesNeeded))
		for _, name := range t.ResourcesNeeded {
			if name = strings.TrimSpace(name); name != "" {
				resources = append(resources, domain.Resource{Name: name})
			}
		}
		order := i
		out = append(out, TaskCreateOptions{
			ID:             ids[i],
			Title:          clip(t.Title, 200),
			Description:    t.Description,
			Priority:       normalizePriority(t.Priority),
			Status:         domain.TaskTodo,
			EstimatedHours: t.EstimatedHours,
			AIGenerated:    &aiGenerated,
			AIConfidence:   t.AIConfidence,
			Dependencies:   deps,
			Tags:           clipTags(t.Tags),
			Resources:      resources,
			Order:          &order,
		})
	}
	return out
}

func titleKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePriority(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	if domain.IsPriority(p) {
		return p
	}
	return domain.PriorityMedium
}

func deriveTitle(goal string) string {
	goal = strings.Join(strings.Fields(goal), " ")
	if utf8.RuneCountInString(goal) <= maxDerivedTitle {
		return goal
	}
	return strings.TrimSpace(clip(goal, maxDerivedTitle-3)) + "..."
}

// clip shortens model-written text to the stored field limits.
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func clipTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if len(out) == 20 {
			break
		}
		if t = clip(t, 50); t != "" {
			out = append(out, t)
		}
	}
	return out
}
