package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"goalplanner/internal/analysis"
	"goalplanner/internal/app"
	"goalplanner/internal/config"
	"goalplanner/internal/db"
	"goalplanner/internal/domain"
	"goalplanner/internal/engine"
	"goalplanner/internal/llm"
	"goalplanner/internal/logging"
	"goalplanner/internal/migrate"
	"goalplanner/internal/plan"
	"goalplanner/internal/repo"
	"goalplanner/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "gp",
	Short: "Goal Planner CLI",
	Long: `Goal Planner turns a free-form goal into a project with a prioritized task list.
- Analyze: a goal is sent to the configured model; if the model is unreachable or its reply
  cannot be parsed, a built-in template breakdown is used instead. Every analysis is recorded.
- Projects own tasks. A project's progress is the share of its tasks that are COMPLETED and is
  recomputed whenever a task is added, removed or changes status.
- Configuration lives in goalplanner.yml (gp config init); secrets come from the environment
  or a .env file (GOALPLANNER_JWT_SECRET, GOALPLANNER_LLM_API_KEY or GEMINI_API_KEY).`,
	SilenceUsage: true,
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GOALPLANNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides goalplanner.yml")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(infoCmd())
}

// --- serve ---

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if basePath == "" {
				basePath = cfg.Server.BasePath
			}
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			secret := viper.GetString("jwt-secret")
			if secret == "" {
				secret, err = ephemeralSecret()
				if err != nil {
					return err
				}
				logger.Warn("GOALPLANNER_JWT_SECRET not set; using a random secret, tokens will not survive a restart")
			}
			handler, err := server.New(server.Config{
				Engine:   a.Engine,
				Analyzer: a.Analyzer,
				Users:    a,
				BasePath: basePath,
				Auth:     server.AuthConfig{JWTSecret: secret, TokenTTL: cfg.TokenTTL(), Logger: logger},
				Logger:   logger.With("component", "http"),
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving", "addr", addr, "base_path", basePath, "model", a.Analyzer.ModelName, "model_enabled", a.Analyzer.Model != nil)
			fmt.Printf("Serving Goal Planner API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from goalplanner.yml)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from goalplanner.yml)")
	return cmd
}

// --- analyze ---

func analyzeCmd() *cobra.Command {
	var contextJSON string
	cmd := &cobra.Command{
		Use:   "analyze <goal...>",
		Short: "Break a goal down into tasks without saving a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goalContext, err := parseContext(contextJSON)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				out, err := a.Analyzer.Analyze(ctx, analysis.Request{
					Goal:    strings.Join(args, " "),
					Context: goalContext,
					UserID:  u.ID,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("source: %s  complexity: %s  total: %.0fh  tokens: %d  time: %dms\n",
					out.Source, out.Analysis.ComplexityLevel, out.Analysis.EstimatedTotalTime, out.TokensUsed, out.ProcessingTimeMs)
				printPlanTasks(out.Tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contextJSON, "context", "", "extra context as a JSON object")
	return cmd
}

// --- projects ---

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectPlanCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectProgressCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				items, err := a.Engine.ListProjects(ctx, repo.ProjectFilters{UserID: u.ID, Status: strings.ToUpper(status)})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Progress", "Deadline"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, p.Status, p.Priority, fmt.Sprintf("%d%%", p.Progress), deref(p.Deadline)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				detail, err := a.Engine.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printDetail(detail)
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var opts engine.ProjectCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				opts.UserID = u.ID
				opts.Priority = strings.ToUpper(opts.Priority)
				p, err := a.Engine.CreateProject(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrLine(p, "created project %s\n", p.ID)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "project title")
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "project goal")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Deadline, "deadline", "", "deadline (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "LOW, MEDIUM, HIGH or CRITICAL")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func projectPlanCmd() *cobra.Command {
	var title, deadline, priority, contextJSON string
	cmd := &cobra.Command{
		Use:   "plan <goal...>",
		Short: "Analyze a goal and save the result as a project with tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goalContext, err := parseContext(contextJSON)
			if err != nil {
				return err
			}
			goal := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				out, err := a.Analyzer.Analyze(ctx, analysis.Request{Goal: goal, Context: goalContext, UserID: u.ID})
				if err != nil {
					return err
				}
				result := plan.Result{ProjectAnalysis: out.Analysis, Tasks: out.Tasks}
				detail, err := a.Engine.CreateProjectWithTasks(ctx, engine.PlanOptions{
					UserID:   u.ID,
					Goal:     goal,
					Title:    title,
					Deadline: deadline,
					Priority: strings.ToUpper(priority),
					Result:   &result,
				})
				if err != nil {
					return err
				}
				if !viper.GetBool("json") {
					fmt.Printf("analysis source: %s\n", out.Source)
				}
				return printDetail(detail)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "project title (defaults to the goal)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&priority, "priority", "", "LOW, MEDIUM, HIGH or CRITICAL")
	cmd.Flags().StringVar(&contextJSON, "context", "", "extra context as a JSON object")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				if err := a.Engine.DeleteProject(ctx, args[0], u.ID); err != nil {
					return err
				}
				fmt.Printf("deleted project %s\n", args[0])
				return nil
			})
		},
	}
}

func projectProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Recount completed tasks and store the project's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				progress, err := a.Engine.RecomputeProgress(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrLine(map[string]any{"project_id": args[0], "progress": progress}, "%d%%\n", progress)
			})
		},
	}
}

// --- tasks ---

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage tasks"}
	t.AddCommand(taskListCmd())
	t.AddCommand(taskAddCmd())
	t.AddCommand(taskSetStatusCmd())
	t.AddCommand(taskReorderCmd())
	return t
}

func taskListCmd() *cobra.Command {
	var status, priority string
	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's tasks in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				items, err := a.Engine.ListTasks(ctx, repo.TaskFilters{
					ProjectID: args[0],
					Status:    strings.ToUpper(status),
					Priority:  strings.ToUpper(priority),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printTasks(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	return cmd
}

func taskAddCmd() *cobra.Command {
	var opts engine.TaskCreateOptions
	var hours float64
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				manual := false
				opts.ProjectID = args[0]
				opts.ActorID = u.ID
				opts.AIGenerated = &manual
				opts.EstimatedHours = hours
				opts.Priority = strings.ToUpper(opts.Priority)
				t, err := a.Engine.CreateTask(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrLine(t, "created task %s\n", t.ID)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "task title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "LOW, MEDIUM, HIGH or CRITICAL")
	cmd.Flags().StringVar(&opts.ParentTaskID, "parent", "", "parent task id")
	cmd.Flags().StringVar(&opts.DueDate, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "estimated hours")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <task-id> <status>",
		Short: "Change a task's status; the project's progress follows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireTaskOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				status := strings.ToUpper(args[1])
				t, err := a.Engine.UpdateTask(ctx, engine.TaskUpdateOptions{ID: args[0], ActorID: u.ID, Status: &status})
				if err != nil {
					return err
				}
				p, err := a.Repo.GetProject(ctx, t.ProjectID)
				if err != nil {
					return err
				}
				return printJSONOrLine(t, "%s -> %s (project %s at %d%%)\n", t.ID, t.Status, p.ID, p.Progress)
			})
		},
	}
}

func taskReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <project-id> <task-id>...",
		Short: "Move the listed tasks to the front, in the given order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				if _, err := a.Engine.Auth.RequireProjectOwner(ctx, args[0], u.ID); err != nil {
					return err
				}
				items, err := a.Engine.ReorderTasks(ctx, args[0], u.ID, args[1:])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printTasks(items)
				return nil
			})
		},
	}
}

// --- sessions ---

func sessionsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Show recent goal analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, u domain.User) error {
				items, err := a.Analyzer.ListSessions(ctx, u.ID, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Created", "Goal", "Model", "Tasks", "Tokens", "ms", "OK", "Error"})
				for _, s := range items {
					tw.AppendRow(table.Row{s.CreatedAt, truncate(s.InputGoal, 40), s.ModelUsed, s.TasksGenerated, s.TokensUsed, s.ProcessingTimeMs, s.Success, truncate(deref(s.ErrorMessage), 40)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repo.MaxSessionPage, "number of sessions")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(c)
			}
			out, err := c.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default goalplanner.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfg.AddCommand(initCmd)
	return cfg
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the workspace database and model in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			version, err := migrate.Version(cmd.Context(), a.DB)
			if err != nil {
				return err
			}
			info := map[string]any{
				"database":       db.Path(viper.GetString("workspace")),
				"schema_version": version,
				"model":          a.Analyzer.ModelName,
				"model_enabled":  a.Analyzer.Model != nil,
			}
			if viper.GetBool("json") {
				return printJSON(info)
			}
			tw := newTable()
			for _, k := range []string{"database", "schema_version", "model", "model_enabled"} {
				tw.AppendRow(table.Row{k, info[k]})
			}
			tw.Render()
			return nil
		},
	}
}

// --- helpers ---

// loadConfig reads goalplanner.yml and applies GOALPLANNER_* overrides.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, nil, err
	}
	overlay := map[string]*string{
		"server.addr":      &cfg.Server.Addr,
		"server.base_path": &cfg.Server.BasePath,
		"llm.provider":     &cfg.LLM.Provider,
		"llm.model":        &cfg.LLM.Model,
		"llm.base_url":     &cfg.LLM.BaseURL,
		"log.level":        &cfg.Log.Level,
		"log.format":       &cfg.Log.Format,
	}
	for key, dst := range overlay {
		if v := strings.TrimSpace(viper.GetString(key)); v != "" {
			*dst = v
		}
	}
	if v := viper.GetInt("llm.timeout_seconds"); v > 0 {
		cfg.LLM.TimeoutSeconds = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format), nil
}

// modelAPIKey prefers GOALPLANNER_LLM_API_KEY, then the provider's usual variable.
func modelAPIKey(provider string) string {
	if v := viper.GetString("llm.api_key"); v != "" {
		return v
	}
	switch llm.Provider(strings.ToLower(provider)) {
	case llm.ProviderGemini, "":
		return os.Getenv("GEMINI_API_KEY")
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.App, error) {
	return app.Open(ctx, app.Options{
		Workspace: viper.GetString("workspace"),
		Config:    cfg,
		LLMAPIKey: modelAPIKey(cfg.LLM.Provider),
		Logger:    logger,
	})
}

// withApp opens the workspace and runs fn as the local CLI user.
func withApp(ctx context.Context, fn func(context.Context, *app.App, domain.User) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	u, err := a.EnsureUser(ctx, app.LocalUserEmail, "local")
	if err != nil {
		return err
	}
	return fn(ctx, a, u)
}

func parseContext(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("--context must be a JSON object: %w", err)
	}
	return out, nil
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printDetail(detail engine.ProjectDetail) error {
	if viper.GetBool("json") {
		return printJSON(detail)
	}
	p := detail.Project
	fmt.Printf("%s  %s\n", p.ID, p.Title)
	fmt.Printf("goal: %s\nstatus: %s  priority: %s  progress: %d%%  deadline: %s\n", p.Goal, p.Status, p.Priority, p.Progress, deref(p.Deadline))
	printTasks(detail.Tasks)
	return nil
}

func printTasks(items []domain.Task) {
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "ID", "Title", "Status", "Priority", "Est. h", "Parent", "Depends on"})
	for _, t := range items {
		tw.AppendRow(table.Row{t.Order, t.ID, truncate(t.Title, 50), t.Status, t.Priority, t.EstimatedHours, deref(t.ParentTaskID), strings.Join(t.Dependencies, ", ")})
	}
	tw.Render()
}

func printPlanTasks(items []plan.Task) {
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Title", "Priority", "Est. h", "Confidence", "Depends on"})
	for i, t := range items {
		tw.AppendRow(table.Row{i + 1, truncate(t.Title, 50), t.Priority, t.EstimatedHours, confidence(t.AIConfidence), strings.Join(t.Dependencies, ", ")})
	}
	tw.Render()
}

func confidence(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func printJSONOrLine(v any, format string, args ...any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	fmt.Printf(format, args...)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
