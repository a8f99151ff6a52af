// Package plan holds the structured goal breakdown returned by the model,
// the prompt that asks for it, and the deterministic fallback that stands in
// for the model when it is unavailable.
package plan

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Analysis summarizes the goal as a whole.
type Analysis struct {
	GoalClarity        float64  `json:"goal_clarity"`
	ComplexityLevel    string   `json:"complexity_level"`
	EstimatedTotalTime float64  `json:"estimated_total_time" validate:"gte=0"`
	KeyChallenges      []string `json:"key_challenges"`
	SuccessCriteria    []string `json:"success_criteria"`
}

// Task is one step of the breakdown, in generation order.
type Task struct {
	Title           string   `json:"title" validate:"required,nonblank,max=200"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	EstimatedHours  float64  `json:"estimated_hours" validate:"gte=0"`
	Dependencies    []string `json:"dependencies"`
	Tags            []string `json:"tags"`
	ResourcesNeeded []string `json:"resources_needed"`
	AIConfidence    *float64 `json:"ai_confidence" validate:"omitnil,gte=0,lte=1"`
}

// Result is the decoded breakdown, whether it came from the model or from
// Synthesize. Callers never need to know which.
type Result struct {
	ProjectAnalysis Analysis `json:"project_analysis"`
	Tasks           []Task   `json:"tasks"`
}

// wireResult mirrors Result with presence checks for the top-level keys.
type wireResult struct {
	ProjectAnalysis *Analysis `json:"project_analysis" validate:"required"`
	Tasks           []Task    `json:"tasks" validate:"required,max=100,dive"`
}

// Validate checks the shape rules a usable breakdown must satisfy.
func (r Result) Validate() error {
	return checkShape(wireResult{ProjectAnalysis: &r.ProjectAnalysis, Tasks: nonNilTasks(r.Tasks)})
}

func checkShape(w wireResult) error {
	err := validate.Struct(w)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid breakdown: %s", strings.Join(msgs, "; "))
}

func nonNilTasks(in []Task) []Task {
	if in == nil {
		return []Task{}
	}
	return in
}

// TotalHours sums the estimated hours of every task.
func (r Result) TotalHours() float64 {
	var total float64
	for _, t := range r.Tasks {
		total += t.EstimatedHours
	}
	return total
}
