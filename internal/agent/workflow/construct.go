package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	"github.com/agentic-kg-poc/server/internal/files"
	"github.com/agentic-kg-poc/server/internal/graphdb"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

// samplePathDepth bounds the multi-hop verification paths.
const samplePathDepth = 3

// Construct materialises the approved plan in the graph backend and returns
// the resulting statistics. Order is load-bearing: constraints, then every
// node load, then every relationship, then verification. A malformed row or
// edge is counted and skipped; a backend failure aborts the whole call and
// leaves the session without statistics.
func (c *Coordinator) Construct(ctx context.Context, id string) (*model.GraphStatistics, error) {
	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireReached(sess, model.StepPlanApproved, "construct"); err != nil {
		return nil, err
	}
	if err := requireBefore(sess, model.StepConstructed, "construct"); err != nil {
		return nil, err
	}
	plan := sess.Plan
	log := logx.With().Str("session_id", id).Logger()

	if err := c.graph.Ping(ctx); err != nil {
		return nil, errx.Wrap(errx.KindBackend, errx.GraphErrorMessage, err)
	}

	if c.cfg.Construction.ClearExisting {
		log.Warn().Msg("clearing existing graph state")
		if err := c.graph.Clear(ctx); err != nil {
			return nil, err
		}
	}

	for _, n := range plan.Nodes {
		if err := c.graph.EnsureConstraint(ctx, n.Label, n.KeyProperty); err != nil {
			return nil, err
		}
	}

	skipped := model.SkipCounts{
		RowsByLabel:  make(map[string]int64),
		EdgesByLabel: make(map[string]int64),
	}

	// rowsByLabel keeps the loaded rows so relationship skip counts can be
	// derived after edge creation.
	rowsByLabel := make(map[string][]map[string]any, len(plan.Nodes))
	for _, n := range plan.Nodes {
		rows, skippedRows, err := c.loadRows(sess, n)
		if err != nil {
			return nil, err
		}
		if skippedRows > 0 {
			skipped.RowsByLabel[n.Label] = skippedRows
			log.Warn().
				Str("kind", string(errx.KindPartialData)).
				Str("label", n.Label).
				Int64("skipped_rows", skippedRows).
				Msg("rows skipped for missing key property")
		}
		rowsByLabel[n.Label] = rows

		chunk := c.cfg.Construction.ChunkSize
		if chunk <= 0 {
			chunk = len(rows)
		}
		var created int64
		for i := 0; i < len(rows); i += chunk {
			end := i + chunk
			if end > len(rows) {
				end = len(rows)
			}
			n64, err := c.graph.UpsertNodes(ctx, n.Label, n.KeyProperty, rows[i:end])
			if err != nil {
				return nil, err
			}
			created += n64
		}
		log.Info().
			Str("label", n.Label).
			Int("rows", len(rows)).
			Int64("created", created).
			Msg("nodes loaded")
	}

	for _, r := range plan.Relationships {
		join := graphdb.JoinRule{FromProperty: r.FromProperty, ToProperty: r.ToProperty}
		created, err := c.graph.CreateRelationships(ctx, r.Label, r.From, r.To, join)
		if err != nil {
			return nil, err
		}
		expected := expectedEdges(plan, r, rowsByLabel)
		if miss := expected - created; miss > 0 {
			skipped.EdgesByLabel[r.Label] += miss
			log.Warn().
				Str("kind", string(errx.KindPartialData)).
				Str("relationship", r.Label).
				Int64("skipped_edges", miss).
				Msg("edges skipped for missing endpoints")
		}
		log.Info().
			Str("relationship", r.Label).
			Int64("created", created).
			Msg("relationships created")
	}

	nodeCounts, relCounts, err := c.graph.CountByLabel(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := c.graph.SamplePaths(ctx, samplePathDepth, c.cfg.Construction.SamplePaths)
	if err != nil {
		return nil, err
	}

	stats := &model.GraphStatistics{
		NodesByLabel:         nodeCounts,
		RelationshipsByLabel: relCounts,
		SamplePaths:          paths,
		Skipped:              skipped,
	}

	if err := c.store.Update(ctx, id, func(sess *model.Session) error {
		if err := requireBefore(sess, model.StepConstructed, "construct"); err != nil {
			return err
		}
		sess.Statistics = stats
		sess.Advance(model.StepConstructed, timeNow())
		return nil
	}); err != nil {
		return nil, err
	}

	log.Info().
		Int64("nodes", stats.TotalNodes()).
		Int64("relationships", stats.TotalRelationships()).
		Int64("skipped", skipped.Total()).
		Msg("construction finished")
	return stats, nil
}

// loadRows materialises the property rows for one node type. Structured
// sources yield one row per CSV record, restricted to the declared
// properties; records with an empty key value are skipped and counted.
// Unstructured sources yield one document-level row keyed by the file name.
func (c *Coordinator) loadRows(sess *model.Session, n model.NodeType) ([]map[string]any, int64, error) {
	candidate, ok := sess.Candidate(n.SourceFile)
	if !ok {
		// Plans proposed before candidate tracking fall back to extension
		// detection.
		if strings.EqualFold(filepath.Ext(n.SourceFile), ".csv") {
			candidate = model.FileCandidate{Path: n.SourceFile, Kind: model.FileStructured}
		} else {
			candidate = model.FileCandidate{Path: n.SourceFile, Kind: model.FileUnstructured}
		}
	}

	if candidate.Kind == model.FileUnstructured {
		name := strings.TrimSuffix(filepath.Base(n.SourceFile), filepath.Ext(n.SourceFile))
		row := map[string]any{n.KeyProperty: name}
		for _, p := range n.Properties {
			switch p {
			case "source":
				row[p] = n.SourceFile
			case "text":
				row[p] = candidate.Sample
			}
		}
		return []map[string]any{row}, 0, nil
	}

	records, err := files.Rows(c.cfg.Data.InputDir, n.SourceFile)
	if err != nil {
		return nil, 0, err
	}

	declared := make(map[string]bool, len(n.Properties)+1)
	declared[n.KeyProperty] = true
	for _, p := range n.Properties {
		declared[p] = true
	}

	var rows []map[string]any
	var skippedRows int64
	for _, rec := range records {
		if rec[n.KeyProperty] == "" {
			skippedRows++
			continue
		}
		row := make(map[string]any, len(declared))
		for col, val := range rec {
			if declared[col] {
				row[col] = val
			}
		}
		rows = append(rows, row)
	}
	return rows, skippedRows, nil
}

// expectedEdges counts the edges a relationship should produce from the
// loaded rows: one per distinct node on the foreign-key side that carries a
// non-empty join value. The foreign-key side is whichever endpoint joins on
// a property other than its own key; ties default to the source side.
func expectedEdges(plan *model.ConstructionPlan, r model.RelationshipType, rowsByLabel map[string][]map[string]any) int64 {
	label, keyProp, joinProp := r.From, "", r.FromProperty
	if n, ok := plan.NodeType(r.From); ok {
		keyProp = n.KeyProperty
	}
	if joinProp == keyProp {
		if n, ok := plan.NodeType(r.To); ok && r.ToProperty != n.KeyProperty {
			label, keyProp, joinProp = r.To, n.KeyProperty, r.ToProperty
		}
	}

	seen := make(map[string]bool)
	var expected int64
	for _, row := range rowsByLabel[label] {
		key := fmt.Sprint(row[keyProp])
		if seen[key] {
			continue
		}
		seen[key] = true
		if v, ok := row[joinProp]; ok && fmt.Sprint(v) != "" {
			expected++
		}
	}
	return expected
}
