// Package memory models the tiered conversational context the assistant
// accumulates about a user: what was said this turn, this session, and across
// sessions.
package memory

// Layer is the recency tier of a context triple.
type Layer int

const (
	// L0 holds triples extracted from the current turn.
	L0 Layer = iota
	// L1 holds triples accumulated during the current session.
	L1
	// L2 holds durable triples loaded from long-term storage.
	L2
)

// String returns the tier name.
func (l Layer) String() string {
	switch l {
	case L0:
		return "L0"
	case L1:
		return "L1"
	case L2:
		return "L2"
	default:
		return "unknown"
	}
}

// Triple is one extracted fact about the user: subject-predicate-object with
// an optional code-system annotation (e.g. a KCD disease code).
type Triple struct {
	Subject    string
	Predicate  string
	Object     string
	CodeSystem string
	Code       string
}

// Snapshot is the layered context for one retrieval request.
type Snapshot struct {
	L0 []Triple
	L1 []Triple
	L2 []Triple
}

// Empty reports whether no layer carries any triple.
func (s Snapshot) Empty() bool {
	return len(s.L0) == 0 && len(s.L1) == 0 && len(s.L2) == 0
}

// Layer returns the triples of a single tier.
func (s Snapshot) Layer(l Layer) []Triple {
	switch l {
	case L0:
		return s.L0
	case L1:
		return s.L1
	case L2:
		return s.L2
	default:
		return nil
	}
}

// Weights holds the per-tier multiplicities used when layered terms are folded
// into the rerank term multiset. Recency tiers weigh strictly heavier.
type Weights struct {
	L0 int
	L1 int
	L2 int
}

// DefaultWeights returns the standard 3/2/1 tiering.
func DefaultWeights() Weights {
	return Weights{L0: 3, L1: 2, L2: 1}
}

// For returns the weight of a tier, never below 1.
func (w Weights) For(l Layer) int {
	var v int
	switch l {
	case L0:
		v = w.L0
	case L1:
		v = w.L1
	case L2:
		v = w.L2
	}
	if v < 1 {
		return 1
	}
	return v
}
