package session

import (
	"fmt"

	"github.com/docsmithhq/backend/internal/model/document"
)

// State is the conversation phase of a session.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateGenerating State = "generating"
)

// InvalidStateError reports an operation invoked outside its required state.
// It is a protocol error, never retried.
type InvalidStateError struct {
	Op       string
	Expected State
	Actual   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s requires state %q, session is %q", e.Op, e.Expected, e.Actual)
}

// Mapping is a confidence-scored candidate value for a named field.
type Mapping struct {
	Name       string
	Value      string
	Confidence float64
}

// Solicitation describes the next field-request prompt to build: which fields
// are still missing, the bounded batch to ask for now, any acknowledgments of
// values just recorded, and whether this is the session's first prompt.
type Solicitation struct {
	Missing         []string
	Batch           []string
	Acknowledgments []string
	Greet           bool
	Goal            string
	Category        document.Category
}

type field struct {
	name     string
	value    string
	resolved bool
}

// Session holds the in-memory state of one logical conversation: the state
// machine, the ordered field map and goal/category metadata. It performs no
// I/O; collaborator calls are driven externally from its transitions.
type Session struct {
	ID string

	state    State
	category document.Category
	goal     string
	fields   []field
	index    map[string]int
	greeted  bool
	acks     []string
}

// New creates an idle session for a conversation identifier.
func New(id string) *Session {
	return &Session{
		ID:    id,
		state: StateIdle,
		index: make(map[string]int),
	}
}

func (s *Session) State() State                { return s.state }
func (s *Session) Category() document.Category { return s.category }
func (s *Session) Goal() string                { return s.goal }

// Begin moves an idle session into collection with the extracted category and
// field template. The goal is set on first use and never overwritten; a reset
// session keeps its original goal across a fresh Begin.
func (s *Session) Begin(goal string, category document.Category, fieldNames []string) error {
	if s.state != StateIdle {
		return &InvalidStateError{Op: "Begin", Expected: StateIdle, Actual: s.state}
	}

	if s.goal == "" {
		s.goal = goal
	}
	s.category = category
	s.fields = make([]field, 0, len(fieldNames))
	s.index = make(map[string]int, len(fieldNames))
	for _, name := range fieldNames {
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = len(s.fields)
		s.fields = append(s.fields, field{name: name})
	}
	s.acks = nil
	s.state = StateCollecting
	return nil
}

// Missing returns the names of fields without a resolved value, in template
// order.
func (s *Session) Missing() []string {
	var missing []string
	for _, f := range s.fields {
		if !f.resolved {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Resolved returns every resolved field in template order.
func (s *Session) Resolved() []document.FieldValue {
	resolved := make([]document.FieldValue, 0, len(s.fields))
	for _, f := range s.fields {
		if f.resolved {
			resolved = append(resolved, document.FieldValue{Name: f.name, Value: f.value})
		}
	}
	return resolved
}

// Apply records confidence-scored mappings against missing fields. A field is
// updated only while missing and only above the threshold; resolved fields are
// never overwritten, which makes duplicate delivery idempotent. Resolving the
// last missing field advances the session to generating. The accepted mappings
// are returned.
func (s *Session) Apply(mappings []Mapping, threshold float64) ([]Mapping, error) {
	if s.state != StateCollecting {
		return nil, &InvalidStateError{Op: "Apply", Expected: StateCollecting, Actual: s.state}
	}

	var accepted []Mapping
	for _, m := range mappings {
		idx, ok := s.index[m.Name]
		if !ok || s.fields[idx].resolved {
			continue
		}
		if m.Confidence <= threshold || m.Value == "" {
			continue
		}
		s.fields[idx].value = m.Value
		s.fields[idx].resolved = true
		s.acks = append(s.acks, fmt.Sprintf("Recorded %s as %q", document.FieldLabel(m.Name), m.Value))
		accepted = append(accepted, m)
	}

	if len(s.Missing()) == 0 {
		s.state = StateGenerating
	}
	return accepted, nil
}

// NextSolicitation plans the next field-request prompt. It returns nil, and
// advances the session to generating, exactly when no field remains missing.
// The batch is capped at batchSize so prompts stay small; pending
// acknowledgments are consumed; the greeting flag is set only on the first
// prompt of the session.
func (s *Session) NextSolicitation(batchSize int) (*Solicitation, error) {
	if s.state != StateCollecting {
		return nil, &InvalidStateError{Op: "NextSolicitation", Expected: StateCollecting, Actual: s.state}
	}

	missing := s.Missing()
	if len(missing) == 0 {
		s.state = StateGenerating
		return nil, nil
	}

	if batchSize < 1 {
		batchSize = 1
	}
	batch := missing
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	acks := s.acks
	s.acks = nil

	greet := !s.greeted
	s.greeted = true

	return &Solicitation{
		Missing:         missing,
		Batch:           batch,
		Acknowledgments: acks,
		Greet:           greet,
		Goal:            s.goal,
		Category:        s.category,
	}, nil
}

// Snapshot freezes the generation context at the moment collection completes.
func (s *Session) Snapshot() document.Context {
	return document.Context{
		Category: s.category,
		Goal:     s.goal,
		Fields:   s.Resolved(),
	}
}

// FinishGeneration returns a generating session to idle after the pipeline
// delivered its completion event.
func (s *Session) FinishGeneration() error {
	if s.state != StateGenerating {
		return &InvalidStateError{Op: "FinishGeneration", Expected: StateGenerating, Actual: s.state}
	}
	s.state = StateIdle
	return nil
}

// Reset forces the session back to idle, used on cancellation and
// unrecoverable failure. Already-delivered output is left as-is; the goal and
// greeting flag survive so a restarted collection does not re-greet.
func (s *Session) Reset() {
	s.state = StateIdle
}
