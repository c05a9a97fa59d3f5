package model

// SkipCounts records soft per-row and per-edge failures during construction.
// A skip is counted and logged but never aborts the enclosing batch.
type SkipCounts struct {
	// RowsByLabel counts rows skipped per node label (missing key property).
	RowsByLabel map[string]int64 `json:"rows_by_label,omitempty"`
	// EdgesByLabel counts edges skipped per relationship label
	// (missing source or target endpoint).
	EdgesByLabel map[string]int64 `json:"edges_by_label,omitempty"`
}

// Total returns the combined number of skipped rows and edges.
func (s SkipCounts) Total() int64 {
	var n int64
	for _, c := range s.RowsByLabel {
		n += c
	}
	for _, c := range s.EdgesByLabel {
		n += c
	}
	return n
}

// GraphStatistics is the construction-stage output: what was actually built.
// Purely observational, never mutated after execute returns.
type GraphStatistics struct {
	NodesByLabel         map[string]int64 `json:"nodes_by_label"`
	RelationshipsByLabel map[string]int64 `json:"relationships_by_label"`
	SamplePaths          []string         `json:"sample_paths,omitempty"`
	Skipped              SkipCounts       `json:"skipped"`
}

// TotalNodes returns the number of nodes created across all labels.
func (g *GraphStatistics) TotalNodes() int64 {
	var n int64
	for _, c := range g.NodesByLabel {
		n += c
	}
	return n
}

// TotalRelationships returns the number of relationships created across all labels.
func (g *GraphStatistics) TotalRelationships() int64 {
	var n int64
	for _, c := range g.RelationshipsByLabel {
		n += c
	}
	return n
}
