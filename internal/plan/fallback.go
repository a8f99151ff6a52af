package plan

import "strings"

// Template names reported by TemplateFor.
const (
	TemplateSoftware = "mobile app"
	TemplateDefault  = "default"
)

var softwareKeywords = []string{"app", "mobile", "software"}

// TemplateFor names the canned breakdown Synthesize picks for a goal.
func TemplateFor(goal string) string {
	lowered := strings.ToLower(goal)
	for _, kw := range softwareKeywords {
		if strings.Contains(lowered, kw) {
			return TemplateSoftware
		}
	}
	return TemplateDefault
}

// Synthesize returns a deterministic breakdown for goal without any I/O.
// Every call builds fresh values, so callers may mutate the result.
func Synthesize(goal string) Result {
	if TemplateFor(goal) == TemplateSoftware {
		return softwareTemplate()
	}
	return defaultTemplate()
}

func task(title, desc, priority string, hours float64, tags, resources []string, confidence float64) Task {
	return Task{
		Title:           title,
		Description:     desc,
		Priority:        priority,
		EstimatedHours:  hours,
		Dependencies:    []string{},
		Tags:            tags,
		ResourcesNeeded: resources,
		AIConfidence:    &confidence,
	}
}

func softwareTemplate() Result {
	return Result{
		ProjectAnalysis: Analysis{
			GoalClarity:        8,
			ComplexityLevel:    "HIGH",
			EstimatedTotalTime: 480,
			KeyChallenges:      []string{"Tight timeline", "Cross-platform compatibility", "User acquisition"},
			SuccessCriteria:    []string{"App published on stores", "100+ users", "Core features working"},
		},
		Tasks: []Task{
			task("Project Setup and Planning", "Set up development environment, choose tech stack, create project structure",
				"CRITICAL", 16, []string{"setup", "planning"}, []string{"Development tools"}, 0.95),
			task("UI/UX Design Creation", "Create wireframes, mockups, and user flow designs",
				"HIGH", 60, []string{"design", "ui"}, []string{"Design tools"}, 0.90),
			task("Backend API Development", "Build REST API for core functionality",
				"CRITICAL", 120, []string{"backend", "api"}, []string{"Cloud hosting", "Database"}, 0.85),
			task("Frontend Development", "Implement mobile app with core features",
				"CRITICAL", 180, []string{"frontend", "mobile"}, []string{"Mobile dev tools"}, 0.80),
			task("Testing and QA", "Comprehensive testing and bug fixes",
				"HIGH", 80, []string{"testing", "qa"}, []string{"Testing tools"}, 0.85),
			task("Deployment and Launch", "Deploy app and submit to app stores",
				"CRITICAL", 24, []string{"deployment", "launch"}, []string{"App store accounts"}, 0.75),
		},
	}
}

func defaultTemplate() Result {
	return Result{
		ProjectAnalysis: Analysis{
			GoalClarity:        7,
			ComplexityLevel:    "MEDIUM",
			EstimatedTotalTime: 120,
			KeyChallenges:      []string{"Time management", "Resource allocation"},
			SuccessCriteria:    []string{"Goal achieved", "Quality maintained"},
		},
		Tasks: []Task{
			task("Initial Planning", "Plan and organize the project approach",
				"HIGH", 8, []string{"planning"}, []string{"Planning tools"}, 0.85),
			task("Research and Analysis", "Conduct necessary research for the project",
				"MEDIUM", 24, []string{"research"}, []string{"Research materials"}, 0.80),
			task("Implementation", "Execute the main work of the project",
				"HIGH", 60, []string{"implementation"}, []string{"Development tools"}, 0.75),
			task("Review and Finalize", "Review work and make final adjustments",
				"MEDIUM", 16, []string{"review"}, []string{"Review tools"}, 0.85),
			task("Documentation and Delivery", "Document results and deliver final output",
				"HIGH", 12, []string{"documentation"}, []string{"Documentation tools"}, 0.90),
		},
	}
}
