package hazards

// Record is one hazard under analysis. Its classification is derived from the
// answer set and recomputed on every answer mutation.
type Record struct {
	id             string
	answers        AnswerSet
	classification Classification
	session        *Session
}

// NewRecord creates a record with all questions unanswered.
func NewRecord(id string) *Record {
	return newRecord(id, AnswerSet{})
}

func newRecord(id string, answers AnswerSet) *Record {
	return &Record{
		id:             id,
		answers:        answers,
		classification: Classify(answers),
	}
}

// ID returns the hazard id, stable for the life of the record.
func (r *Record) ID() string {
	return r.id
}

// Answers returns a copy of the current answer set.
func (r *Record) Answers() AnswerSet {
	return r.answers
}

// Classification returns the stored classification. Reading never recomputes.
func (r *Record) Classification() Classification {
	return r.classification
}

// UpdateAnswer records a for q and recomputes the classification. A record
// held by a session moves between the session's counts when its
// classification changes. An unrecognised question leaves the record unchanged.
func (r *Record) UpdateAnswer(q Question, a Answer) {
	if !r.answers.Set(q, a) {
		return
	}

	before := r.classification
	r.classification = Classify(r.answers)
	if r.session != nil && r.classification != before {
		r.session.counts[before]--
		r.session.counts[r.classification]++
	}
}
