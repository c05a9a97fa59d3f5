package proposer

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	"github.com/agentic-kg-poc/server/internal/agent/proposer/prompts"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// GeminiConfig holds the configuration for proposer chat model creation.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   *model.ProposerModelConfig
}

// Gemini implements Proposer on top of the Gemini chat model.
type Gemini struct {
	chatModel *gemini.ChatModel
	modelName string
	pricing   model.Pricing
}

// NewGemini creates the Gemini-backed proposer with the given configuration.
func NewGemini(ctx context.Context, config GeminiConfig) (*Gemini, error) {
	if config.Model == nil {
		return nil, fmt.Errorf("proposer model config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Model.Model,
		Temperature: &config.Model.Temperature,
		MaxTokens:   &config.Model.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating proposer model")
		return nil, fmt.Errorf("error creating proposer model: %w", err)
	}

	return &Gemini{
		chatModel: chatModel,
		modelName: config.Model.Model,
		pricing:   model.ResolvePricing(config.Model.Model),
	}, nil
}

func (g *Gemini) Propose(ctx context.Context, req Request) (*Suggestion, error) {
	switch req.Task {
	case TaskRankFiles:
		return g.rankFiles(ctx, req)
	case TaskProposeEntities:
		return g.proposeEntities(ctx, req)
	default:
		return nil, errx.Validation("unknown proposer task", string(req.Task))
	}
}

func (g *Gemini) rankFiles(ctx context.Context, req Request) (*Suggestion, error) {
	system, err := prompts.RenderFileRanking(ctx, req.Goal, req.Candidates)
	if err != nil {
		return nil, fmt.Errorf("render file ranking prompt: %w", err)
	}

	content, err := g.generate(ctx, system, "Rank the files now.")
	if err != nil {
		return nil, err
	}

	payload, err := parseRankingResponse(content)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]model.FileCandidate, len(req.Candidates))
	for _, c := range req.Candidates {
		byPath[c.Path] = c
	}

	ranked := make([]model.FileSuggestion, 0, len(payload.RankedFiles))
	for _, rf := range payload.RankedFiles {
		c, ok := byPath[rf.Path]
		if !ok {
			// Model referenced a file outside the catalog; drop it.
			logx.Warn().Str("path", rf.Path).Msg("dropped ranked file not in catalog")
			continue
		}
		ranked = append(ranked, model.FileSuggestion{
			FileCandidate: c,
			Score:         rf.Score,
			Reason:        rf.Reason,
		})
		delete(byPath, rf.Path)
	}
	// Files the model skipped still surface for human review, at zero score.
	for _, c := range req.Candidates {
		if _, pending := byPath[c.Path]; pending {
			ranked = append(ranked, model.FileSuggestion{
				FileCandidate: c,
				Score:         0,
				Reason:        "not ranked by the model",
			})
		}
	}

	return &Suggestion{RankedFiles: ranked, Reasoning: payload.Reasoning}, nil
}

func (g *Gemini) proposeEntities(ctx context.Context, req Request) (*Suggestion, error) {
	system, err := prompts.RenderSchemaProposal(ctx, req.Goal, req.Candidates)
	if err != nil {
		return nil, fmt.Errorf("render schema proposal prompt: %w", err)
	}

	content, err := g.generate(ctx, system, "Propose the entity schema now.")
	if err != nil {
		return nil, err
	}

	payload, err := parseEntitiesResponse(content)
	if err != nil {
		return nil, err
	}

	nodes := make([]model.NodeType, 0, len(payload.EntityNodes))
	labels := make(map[string]bool, len(payload.EntityNodes))
	for _, n := range payload.EntityNodes {
		if n.Label == "" || n.KeyProperty == "" {
			logx.Warn().Str("label", n.Label).Msg("dropped incomplete entity node proposal")
			continue
		}
		nodes = append(nodes, model.NodeType{
			Label:       n.Label,
			SourceFile:  n.SourceFile,
			KeyProperty: n.KeyProperty,
			Properties:  n.Properties,
		})
		labels[n.Label] = true
	}

	rels := make([]model.RelationshipType, 0, len(payload.EntityRelationships))
	for _, r := range payload.EntityRelationships {
		if !labels[r.From] || !labels[r.To] {
			logx.Warn().Str("label", r.Label).Msg("dropped entity relationship with unknown endpoint")
			continue
		}
		rels = append(rels, model.RelationshipType{
			Label: r.Label,
			From:  r.From,
			To:    r.To,
		})
	}

	return &Suggestion{
		EntityNodes:         nodes,
		EntityRelationships: rels,
		Reasoning:           payload.Reasoning,
	}, nil
}

// generate runs one chat completion and logs its token cost.
func (g *Gemini) generate(ctx context.Context, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	resp, err := g.chatModel.Generate(ctx, msgs)
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("proposer generation failed")
		return "", errx.Wrap(errx.KindBackend, "model provider call failed", err)
	}

	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		usage := resp.ResponseMeta.Usage
		inCost, outCost, total := model.ComputeCost(usage, g.pricing)
		logx.Info().
			Str("model", g.modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Float64("input_cost_usd", inCost).
			Float64("output_cost_usd", outCost).
			Float64("total_cost_usd", total).
			Msg("proposer generation usage")
	}

	return resp.Content, nil
}

var _ Proposer = (*Gemini)(nil)
