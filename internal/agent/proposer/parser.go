package proposer

import (
	"encoding/json"
	"fmt"
	"strings"

	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// safety limits to avoid pathological model outputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxRanked     = 200
	maxEntities   = 100
)

type rankedFilePayload struct {
	Path   string  `json:"path"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type rankingPayload struct {
	RankedFiles []rankedFilePayload `json:"ranked_files"`
	Reasoning   string              `json:"reasoning"`
}

type entityNodePayload struct {
	Label       string   `json:"label"`
	SourceFile  string   `json:"source_file"`
	KeyProperty string   `json:"key_property"`
	Properties  []string `json:"properties"`
}

type entityRelPayload struct {
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type entitiesPayload struct {
	EntityNodes         []entityNodePayload `json:"entity_nodes"`
	EntityRelationships []entityRelPayload  `json:"entity_relationships"`
	Reasoning           string              `json:"reasoning"`
}

// extractJSON strips markdown code fences and surrounding chatter, keeping
// the outermost JSON object.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "proposer_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no json object in content")
	}
	return content[start : end+1], nil
}

func parseRankingResponse(content string) (payload *rankingPayload, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "proposer_parser").Msgf("panic recovered: %v", r)
			err = errx.Wrap(errx.KindBackend, errx.SystemErrorMessage, fmt.Errorf("ranking parser panic"))
			payload = nil
		}
	}()

	raw, err := extractJSON(content)
	if err != nil {
		return nil, errx.Wrap(errx.KindBackend, "ranking response was not valid JSON", err)
	}

	payload = &rankingPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, errx.Wrap(errx.KindBackend, "ranking response was not valid JSON", fmt.Errorf("unmarshal ranking: %w", err))
	}
	if len(payload.RankedFiles) > maxRanked {
		logx.Warn().
			Str("component", "proposer_parser").
			Int("count", len(payload.RankedFiles)).
			Msg("ranked files capped")
		payload.RankedFiles = payload.RankedFiles[:maxRanked]
	}
	for i := range payload.RankedFiles {
		if payload.RankedFiles[i].Score < 0 {
			payload.RankedFiles[i].Score = 0
		}
		if payload.RankedFiles[i].Score > 1 {
			payload.RankedFiles[i].Score = 1
		}
	}
	return payload, nil
}

func parseEntitiesResponse(content string) (payload *entitiesPayload, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "proposer_parser").Msgf("panic recovered: %v", r)
			err = errx.Wrap(errx.KindBackend, errx.SystemErrorMessage, fmt.Errorf("entities parser panic"))
			payload = nil
		}
	}()

	raw, err := extractJSON(content)
	if err != nil {
		return nil, errx.Wrap(errx.KindBackend, "entity response was not valid JSON", err)
	}

	payload = &entitiesPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, errx.Wrap(errx.KindBackend, "entity response was not valid JSON", fmt.Errorf("unmarshal entities: %w", err))
	}
	if len(payload.EntityNodes) > maxEntities {
		logx.Warn().
			Str("component", "proposer_parser").
			Int("count", len(payload.EntityNodes)).
			Msg("entity nodes capped")
		payload.EntityNodes = payload.EntityNodes[:maxEntities]
	}
	return payload, nil
}
