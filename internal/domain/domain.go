package domain

// Priority values shared by projects and tasks.
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// Project status values.
const (
	ProjectPlanning   = "PLANNING"
	ProjectInProgress = "IN_PROGRESS"
	ProjectPaused     = "PAUSED"
	ProjectCompleted  = "COMPLETED"
	ProjectCancelled  = "CANCELLED"
)

// Task status values.
const (
	TaskTodo       = "TODO"
	TaskInProgress = "IN_PROGRESS"
	TaskReview     = "REVIEW"
	TaskCompleted  = "COMPLETED"
	TaskCancelled  = "CANCELLED"
)

var (
	Priorities      = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	ProjectStatuses = []string{ProjectPlanning, ProjectInProgress, ProjectPaused, ProjectCompleted, ProjectCancelled}
	TaskStatuses    = []string{TaskTodo, TaskInProgress, TaskReview, TaskCompleted, TaskCancelled}
)

func IsPriority(v string) bool      { return contains(Priorities, v) }
func IsProjectStatus(v string) bool { return contains(ProjectStatuses, v) }
func IsTaskStatus(v string) bool    { return contains(TaskStatuses, v) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// AIAnalysis is the analysis snapshot copied onto a project at creation.
type AIAnalysis struct {
	GoalClarity        float64  `json:"goal_clarity"`
	ComplexityLevel    string   `json:"complexity_level"`
	EstimatedTotalTime float64  `json:"estimated_total_time"`
	KeyChallenges      []string `json:"key_challenges"`
	SuccessCriteria    []string `json:"success_criteria"`
}

type Project struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Goal        string      `json:"goal"`
	Deadline    *string     `json:"deadline,omitempty" format:"date-time"`
	Priority    string      `json:"priority" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status      string      `json:"status" enum:"PLANNING,IN_PROGRESS,PAUSED,COMPLETED,CANCELLED"`
	AIAnalysis  *AIAnalysis `json:"ai_analysis,omitempty"`
	Progress    int         `json:"progress" minimum:"0" maximum:"100"`
	Tags        []string    `json:"tags"`
	CreatedAt   string      `json:"created_at" format:"date-time"`
	UpdatedAt   string      `json:"updated_at" format:"date-time"`
}

type Resource struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	ParentTaskID   *string    `json:"parent_task_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Priority       string     `json:"priority" enum:"LOW,MEDIUM,HIGH,CRITICAL"`
	Status         string     `json:"status" enum:"TODO,IN_PROGRESS,REVIEW,COMPLETED,CANCELLED"`
	EstimatedHours float64    `json:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours"`
	StartDate      *string    `json:"start_date,omitempty" format:"date-time"`
	DueDate        *string    `json:"due_date,omitempty" format:"date-time"`
	CompletionDate *string    `json:"completion_date,omitempty" format:"date-time"`
	AIGenerated    bool       `json:"ai_generated"`
	AIConfidence   *float64   `json:"ai_confidence,omitempty"`
	Dependencies   []string   `json:"dependencies"`
	Tags           []string   `json:"tags"`
	Resources      []Resource `json:"resources"`
	Order          int        `json:"order"`
	CreatedAt      string     `json:"created_at" format:"date-time"`
	UpdatedAt      string     `json:"updated_at" format:"date-time"`
}

// AnalysisSession is the append-only audit record of one analysis attempt.
type AnalysisSession struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	ProjectID        *string `json:"project_id,omitempty"`
	InputGoal        string  `json:"input_goal"`
	ProcessedPrompt  string  `json:"processed_prompt"`
	ModelResponseRaw string  `json:"model_response_raw"`
	ModelUsed        string  `json:"model_used"`
	TasksGenerated   int     `json:"tasks_generated"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	TokensUsed       int     `json:"tokens_used"`
	Success          bool    `json:"success"`
	ErrorMessage     *string `json:"error_message,omitempty"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
