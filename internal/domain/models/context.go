package models

// TraversalNode is one reached document: its shortest-path depth from the
// start and the edge-type path that led to it.
type TraversalNode struct {
	Document *Document `json:"document"`
	Depth    int       `json:"depth"`
	Path     []string  `json:"path"` // edge types from the start document
}

// Diagnostic records a non-fatal problem met during traversal, typically a
// relationship target that could not be resolved.
type Diagnostic struct {
	Ref    string `json:"ref"`
	EdgeID string `json:"edge_id,omitempty"`
	Detail string `json:"detail"`
}

// TraversalResult is the outcome of a bounded breadth-first traversal:
// each reachable document once, at its shortest depth, plus diagnostics
// for the references that were skipped.
type TraversalResult struct {
	Nodes       []TraversalNode `json:"nodes"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

// ContextBundle is the start document plus its bounded-depth neighborhood,
// shaped for handing to an external summarization capability.
type ContextBundle struct {
	Start       *Document       `json:"start"`
	Nodes       []TraversalNode `json:"nodes"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}
