package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer"
	"github.com/agentic-kg-poc/server/internal/agent/session"
	"github.com/agentic-kg-poc/server/internal/agent/workflow"
	"github.com/agentic-kg-poc/server/internal/artifacts"
	"github.com/agentic-kg-poc/server/internal/core"
	"github.com/agentic-kg-poc/server/internal/graphdb"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
	pkgredis "github.com/agentic-kg-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the workflow service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	SessionBackend string `envconfig:"SESSION_BACKEND" default:"memory"`
	Redis          pkgredis.Config
	Graph          graphdb.Config

	// LLM provider; the deterministic proposer is used when no key is set.
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	Proposer model.ProposerModelConfig
	Workflow model.WorkflowConfig
}

type app struct {
	cfg         AppConfig
	coordinator *workflow.Coordinator
	graph       graphdb.Client
	shutdown    []func()
}

func (a *app) close() {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		a.shutdown[i]()
	}
}

func buildApp(ctx context.Context) (*app, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	a := &app{cfg: cfg}

	ttl, err := time.ParseDuration(cfg.Workflow.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.Workflow.SessionTTL, err)
	}

	var store session.Store
	switch cfg.SessionBackend {
	case "redis":
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("SESSION_BACKEND=redis requires REDIS_URL")
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, fmt.Errorf("initialise Redis client: %w", err)
		}
		a.shutdown = append(a.shutdown, func() { _ = rdb.Close() })
		store = session.NewRedisStore(rdb, ttl)
	case "memory":
		store = session.NewMemoryStore(ttl)
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	graph, err := graphdb.NewNeo4jClient(cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("initialise graph client: %w", err)
	}
	a.graph = graph
	a.shutdown = append(a.shutdown, func() { _ = graph.Close(context.Background()) })

	var prop proposer.Proposer
	if cfg.APIKey != "" {
		prop, err = proposer.NewGemini(ctx, proposer.GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   &cfg.Proposer,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise proposer model: %w", err)
		}
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, using deterministic proposer")
		prop = proposer.NewStatic()
	}

	a.coordinator = workflow.New(store, prop, graph, cfg.Workflow)
	return a, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kgflow",
		Short:         "Approval-gated knowledge graph construction workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStatusCmd(), newBatchCmd(), newInteractiveCmd())
	return root
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report session store and graph backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if swept, err := a.coordinator.ExpireIdleSessions(ctx); err != nil {
				logx.Warn().Err(err).Msg("idle session sweep failed")
			} else if swept > 0 {
				logx.Info().Int("count", swept).Msg("expired idle sessions")
			}

			h := a.coordinator.Status(ctx)
			out, _ := json.MarshalIndent(h, "", "  ")
			fmt.Println(string(out))
			if !h.Healthy() {
				return fmt.Errorf("one or more collaborators are unhealthy")
			}
			return nil
		},
	}
}

func newBatchCmd() *cobra.Command {
	var goal, graphType string

	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Run the full workflow non-interactively over a fixed file set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			a.cfg.Workflow.Data.InputDir = args[0]
			a.cfg.Workflow.Data.OutputDir = args[1]
			// The coordinator reads the input dir from its config copy, so
			// rebuild it with the overridden paths.
			return runBatch(ctx, a, goal, graphType)
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "Build a domain graph connecting every entity found in the input files", "construction goal description")
	cmd.Flags().StringVar(&graphType, "graph-type", "domain", "graph type: domain, semantic, knowledge, lexical or subject")
	return cmd
}

func runBatch(ctx context.Context, a *app, goal, graphType string) error {
	coord := a.coordinator.WithConfig(a.cfg.Workflow)

	sess, err := coord.CreateSession(ctx, "batch")
	if err != nil {
		return err
	}
	defer func() { _ = coord.CloseSession(context.Background(), sess.ID) }()

	fail := func(err error) error {
		_ = coord.MarkFailed(context.Background(), sess.ID, err)
		return err
	}

	if _, err := coord.SetPerceivedGoal(ctx, sess.ID, goal, graphType); err != nil {
		return fail(err)
	}
	if err := coord.ApproveGoal(ctx, sess.ID); err != nil {
		return fail(err)
	}

	suggestions, err := coord.SuggestFiles(ctx, sess.ID)
	if err != nil {
		return fail(err)
	}
	paths := make([]string, len(suggestions))
	for i, s := range suggestions {
		paths[i] = s.Path
	}
	if err := coord.ApproveFiles(ctx, sess.ID, paths); err != nil {
		return fail(err)
	}

	plan, err := coord.ProposePlan(ctx, sess.ID)
	if err != nil {
		return fail(err)
	}
	if err := coord.ApprovePlan(ctx, sess.ID); err != nil {
		return fail(err)
	}

	stats, err := coord.Construct(ctx, sess.ID)
	if err != nil {
		return fail(err)
	}

	writer, err := artifacts.NewWriter(a.cfg.Workflow.Data.OutputDir)
	if err != nil {
		return fail(err)
	}
	if _, err := writer.WritePlan(sess.ID, plan); err != nil {
		return fail(err)
	}
	statsPath, err := writer.WriteStatistics(sess.ID, stats)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("constructed %d nodes and %d relationships (%d skipped), statistics at %s\n",
		stats.TotalNodes(), stats.TotalRelationships(), stats.Skipped.Total(), statsPath)
	return nil
}

func newInteractiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Drive the workflow state machine turn by turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			return runInteractive(ctx, a)
		},
	}
}

func runInteractive(ctx context.Context, a *app) error {
	coord := a.coordinator

	sess, err := coord.CreateSession(ctx, "interactive")
	if err != nil {
		return err
	}
	fmt.Printf("session %s created\n", sess.ID)
	fmt.Println("commands: goal <type> <description> | approve-goal | suggest | approve-files <path>... | plan | approve-plan | construct | status | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch parts[0] {
		case "goal":
			if len(parts) < 3 {
				fmt.Println("usage: goal <type> <description>")
				continue
			}
			_, err = coord.SetPerceivedGoal(ctx, sess.ID, strings.Join(parts[2:], " "), parts[1])
			if err == nil {
				fmt.Println("goal perceived, approve-goal to confirm")
			}
		case "approve-goal":
			err = coord.ApproveGoal(ctx, sess.ID)
		case "suggest":
			var suggestions []model.FileSuggestion
			suggestions, err = coord.SuggestFiles(ctx, sess.ID)
			for _, s := range suggestions {
				fmt.Printf("  %.2f  %s  (%s)\n", s.Score, s.Path, s.Reason)
			}
		case "approve-files":
			if len(parts) < 2 {
				fmt.Println("usage: approve-files <path>...")
				continue
			}
			err = coord.ApproveFiles(ctx, sess.ID, parts[1:])
		case "plan":
			var plan *model.ConstructionPlan
			plan, err = coord.ProposePlan(ctx, sess.ID)
			if err == nil {
				out, _ := json.MarshalIndent(plan, "", "  ")
				fmt.Println(string(out))
			}
		case "approve-plan":
			err = coord.ApprovePlan(ctx, sess.ID)
		case "construct":
			var stats *model.GraphStatistics
			stats, err = coord.Construct(ctx, sess.ID)
			if err == nil {
				out, _ := json.MarshalIndent(stats, "", "  ")
				fmt.Println(string(out))
			}
		case "status":
			cur, gerr := coord.Session(ctx, sess.ID)
			if gerr != nil {
				err = gerr
				break
			}
			fmt.Printf("step: %s\n", cur.Step)
		case "quit", "exit":
			return coord.CloseSession(ctx, sess.ID)
		default:
			fmt.Printf("unknown command %q\n", parts[0])
			continue
		}

		if err != nil {
			fmt.Printf("error: %v\n", err)
		} else if parts[0] != "suggest" && parts[0] != "status" {
			fmt.Println("ok")
		}
	}
}

func main() {
	logx.Init()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logx.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
