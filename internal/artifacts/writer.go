// Package artifacts persists the reviewable outputs of a workflow run: the
// approved construction plan and the resulting graph statistics, one JSON
// document each, keyed by session id.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// Writer serializes workflow artifacts under a base output directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir, creating it when missing.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errx.Wrap(errx.KindBackend, fmt.Sprintf("creating output directory %s", dir), err)
	}
	return &Writer{dir: dir}, nil
}

// WritePlan persists the construction plan for a session.
func (w *Writer) WritePlan(sessionID string, plan *model.ConstructionPlan) (string, error) {
	return w.write(sessionID, "plan.json", plan)
}

// WriteStatistics persists the graph statistics for a session.
func (w *Writer) WriteStatistics(sessionID string, stats *model.GraphStatistics) (string, error) {
	return w.write(sessionID, "statistics.json", stats)
}

func (w *Writer) write(sessionID, name string, doc any) (string, error) {
	dir := filepath.Join(w.dir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errx.Wrap(errx.KindBackend, fmt.Sprintf("creating session directory %s", dir), err)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", errx.Wrap(errx.KindBackend, fmt.Sprintf("writing artifact %s", path), err)
	}

	logx.Info().Str("session_id", sessionID).Str("path", path).Msg("artifact written")
	return path, nil
}
