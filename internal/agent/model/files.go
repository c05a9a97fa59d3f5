package model

// FileKind classifies an input file by how its content is analysed.
type FileKind string

const (
	// FileStructured covers tabular inputs (CSV) that map one node per row.
	FileStructured FileKind = "structured"
	// FileUnstructured covers free-text inputs (Markdown) that need
	// entity extraction.
	FileUnstructured FileKind = "unstructured"
)

// FileCandidate is one available input file, annotated with its detected
// kind and an optional content sample for relevance scoring.
type FileCandidate struct {
	Path   string   `json:"path"`
	Kind   FileKind `json:"kind"`
	Sample string   `json:"sample,omitempty"`
	// Columns holds the header row for structured files.
	Columns []string `json:"columns,omitempty"`
}

// FileSuggestion is a candidate ranked by relevance to the approved goal.
type FileSuggestion struct {
	FileCandidate
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// ApprovedFileSet is the selection-stage output: the approved subset of the
// candidate set, set exactly once per session.
type ApprovedFileSet struct {
	Files []FileCandidate `json:"files"`
}

// Paths returns the approved paths in order.
func (s *ApprovedFileSet) Paths() []string {
	paths := make([]string, len(s.Files))
	for i, f := range s.Files {
		paths[i] = f.Path
	}
	return paths
}
