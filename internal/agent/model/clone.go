package model

// Clone returns a deep copy of the plan. Stored plans are handed out only
// as copies so an approved plan cannot be mutated through an aliased
// pointer.
func (p *ConstructionPlan) Clone() *ConstructionPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Nodes = make([]NodeType, len(p.Nodes))
	for i, n := range p.Nodes {
		cp.Nodes[i] = n
		cp.Nodes[i].Properties = append([]string(nil), n.Properties...)
	}
	cp.Relationships = append([]RelationshipType(nil), p.Relationships...)
	return &cp
}

// Clone returns a deep copy of the statistics.
func (g *GraphStatistics) Clone() *GraphStatistics {
	if g == nil {
		return nil
	}
	cp := *g
	cp.NodesByLabel = cloneCounts(g.NodesByLabel)
	cp.RelationshipsByLabel = cloneCounts(g.RelationshipsByLabel)
	cp.SamplePaths = append([]string(nil), g.SamplePaths...)
	cp.Skipped.RowsByLabel = cloneCounts(g.Skipped.RowsByLabel)
	cp.Skipped.EdgesByLabel = cloneCounts(g.Skipped.EdgesByLabel)
	return &cp
}

// Clone returns a deep copy of the session, including every nested stage
// artifact. Session stores snapshot through this so no caller ever holds a
// pointer into stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Goal != nil {
		goal := *s.Goal
		cp.Goal = &goal
	}
	cp.Candidates = cloneCandidates(s.Candidates)
	if s.ApprovedFiles != nil {
		cp.ApprovedFiles = &ApprovedFileSet{Files: cloneCandidates(s.ApprovedFiles.Files)}
	}
	cp.Plan = s.Plan.Clone()
	cp.Statistics = s.Statistics.Clone()
	cp.History = append([]Transition(nil), s.History...)
	return &cp
}

func cloneCandidates(in []FileCandidate) []FileCandidate {
	if in == nil {
		return nil
	}
	out := make([]FileCandidate, len(in))
	for i, c := range in {
		out[i] = c
		out[i].Columns = append([]string(nil), c.Columns...)
	}
	return out
}

func cloneCounts(in map[string]int64) map[string]int64 {
	if in == nil {
		return nil
	}
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
