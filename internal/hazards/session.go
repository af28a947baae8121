package hazards

import (
	"fmt"
	"slices"
)

// Summary is the plan-level view of a session.
// CCPCount + OPRPCount + PRPCount + len(IndeterminateHazardIDs) equals the
// number of hazards in the session.
type Summary struct {
	Complete               bool     `json:"is_complete"`
	CCPCount               int      `json:"ccp_count"`
	OPRPCount              int      `json:"oprp_count"`
	PRPCount               int      `json:"prp_count"`
	IndeterminateHazardIDs []string `json:"indeterminate_hazard_ids"`
}

// Total returns the number of hazards the summary covers.
func (s Summary) Total() int {
	return s.CCPCount + s.OPRPCount + s.PRPCount + len(s.IndeterminateHazardIDs)
}

// Snapshot is the persisted form of a record: identity plus answers.
type Snapshot struct {
	ID      string    `json:"id"`
	Answers AnswerSet `json:"answers"`
}

// Session aggregates the hazard records of one plan in insertion order.
// Aggregate counts are maintained eagerly on every mutation, including
// mutations made through a *Record the session handed out. The zero value
// is an empty session ready to use.
//
// A Session is not safe for concurrent use; callers serialize access.
type Session struct {
	order   []string
	records map[string]*Record
	counts  map[Classification]int
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		order:   make([]string, 0),
		records: make(map[string]*Record),
		counts:  make(map[Classification]int, len(classifications)),
	}
}

// Restore rebuilds a session from persisted snapshots, preserving their order.
// Fails with ErrDuplicateHazard if two snapshots share an id.
func Restore(snapshots []Snapshot) (*Session, error) {
	s := NewSession()
	for _, snap := range snapshots {
		if err := s.insert(newRecord(snap.ID, snap.Answers)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddHazard appends a new record with every question unanswered.
func (s *Session) AddHazard(id string) (*Record, error) {
	r := NewRecord(id)
	if err := s.insert(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RemoveHazard drops the record for id. Remaining records keep their order.
func (s *Session) RemoveHazard(id string) error {
	r, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHazard, id)
	}

	s.counts[r.classification]--
	r.session = nil
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// UpdateAnswer records an answer on the hazard identified by id and returns
// the hazard's resulting classification.
func (s *Session) UpdateAnswer(id string, q Question, a Answer) (Classification, error) {
	r, ok := s.records[id]
	if !ok {
		return Indeterminate, fmt.Errorf("%w: %s", ErrUnknownHazard, id)
	}

	r.UpdateAnswer(q, a)
	return r.classification, nil
}

// Record returns the record for id.
func (s *Session) Record(id string) (*Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Classification returns the current classification of the hazard identified by id.
func (s *Session) Classification(id string) (Classification, error) {
	r, ok := s.records[id]
	if !ok {
		return Indeterminate, fmt.Errorf("%w: %s", ErrUnknownHazard, id)
	}
	return r.Classification(), nil
}

// Records returns the records in insertion order.
func (s *Session) Records() []*Record {
	out := make([]*Record, len(s.order))
	for i, id := range s.order {
		out[i] = s.records[id]
	}
	return out
}

// Len returns the number of hazards in the session.
func (s *Session) Len() int {
	return len(s.order)
}

// Summary reports completeness and per-classification counts.
func (s *Session) Summary() Summary {
	pending := make([]string, 0, s.counts[Indeterminate])
	for _, id := range s.order {
		if s.records[id].classification == Indeterminate {
			pending = append(pending, id)
		}
	}

	return Summary{
		Complete:               len(pending) == 0,
		CCPCount:               s.counts[CCP],
		OPRPCount:              s.counts[OPRP],
		PRPCount:               s.counts[PRP],
		IndeterminateHazardIDs: pending,
	}
}

func (s *Session) insert(r *Record) error {
	if _, exists := s.records[r.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHazard, r.id)
	}
	if s.records == nil {
		s.records = make(map[string]*Record)
		s.counts = make(map[Classification]int, len(classifications))
	}

	r.session = s
	s.records[r.id] = r
	s.order = append(s.order, r.id)
	s.counts[r.classification]++
	return nil
}
