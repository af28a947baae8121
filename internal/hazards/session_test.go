package hazards_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/haccp/internal/hazards"
)

func TestAddHazard(t *testing.T) {
	s := hazards.NewSession()

	r, err := s.AddHazard("h1")
	if err != nil {
		t.Fatalf("AddHazard failed: %v", err)
	}
	if r.Classification() != hazards.Indeterminate {
		t.Errorf("new hazard classification = %s, want INDETERMINATE", r.Classification())
	}

	_, err = s.AddHazard("h1")
	if !errors.Is(err, hazards.ErrDuplicateHazard) {
		t.Errorf("duplicate AddHazard error = %v, want ErrDuplicateHazard", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after rejected duplicate", s.Len())
	}
}

func TestRemoveHazard(t *testing.T) {
	s := hazards.NewSession()
	for _, id := range []string{"h1", "h2", "h3"} {
		if _, err := s.AddHazard(id); err != nil {
			t.Fatalf("AddHazard(%s): %v", id, err)
		}
	}

	if err := s.RemoveHazard("h2"); err != nil {
		t.Fatalf("RemoveHazard failed: %v", err)
	}

	var ids []string
	for _, r := range s.Records() {
		ids = append(ids, r.ID())
	}
	if diff := cmp.Diff([]string{"h1", "h3"}, ids); diff != "" {
		t.Errorf("order after remove (-want +got):\n%s", diff)
	}

	if err := s.RemoveHazard("h2"); !errors.Is(err, hazards.ErrUnknownHazard) {
		t.Errorf("second RemoveHazard error = %v, want ErrUnknownHazard", err)
	}
}

func TestUpdateAnswerUnknownHazard(t *testing.T) {
	s := hazards.NewSession()
	_, err := s.UpdateAnswer("missing", hazards.Q1, hazards.No)
	if !errors.Is(err, hazards.ErrUnknownHazard) {
		t.Errorf("error = %v, want ErrUnknownHazard", err)
	}

	if _, err := s.Classification("missing"); !errors.Is(err, hazards.ErrUnknownHazard) {
		t.Errorf("Classification error = %v, want ErrUnknownHazard", err)
	}
}

func TestSessionScenario(t *testing.T) {
	s := hazards.NewSession()
	s.AddHazard("h1")
	s.AddHazard("h2")

	for q, a := range map[hazards.Question]hazards.Answer{
		hazards.Q1: hazards.Yes,
		hazards.Q2: hazards.Yes,
	} {
		if _, err := s.UpdateAnswer("h1", q, a); err != nil {
			t.Fatalf("UpdateAnswer: %v", err)
		}
	}

	got := s.Summary()
	want := hazards.Summary{
		Complete:               false,
		CCPCount:               1,
		IndeterminateHazardIDs: []string{"h2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary before (-want +got):\n%s", diff)
	}
	if hazards.CanExport(s) {
		t.Error("CanExport = true with an indeterminate hazard")
	}

	c, err := s.UpdateAnswer("h2", hazards.Q1, hazards.No)
	if err != nil {
		t.Fatalf("UpdateAnswer: %v", err)
	}
	if c != hazards.PRP {
		t.Errorf("h2 classification = %s, want PRP", c)
	}

	got = s.Summary()
	want = hazards.Summary{
		Complete:               true,
		CCPCount:               1,
		PRPCount:               1,
		IndeterminateHazardIDs: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary after (-want +got):\n%s", diff)
	}
	if !hazards.CanExport(s) {
		t.Error("CanExport = false with every hazard classified")
	}
}

func TestSummaryIndeterminateOrder(t *testing.T) {
	s := hazards.NewSession()
	for _, id := range []string{"c", "a", "b"} {
		s.AddHazard(id)
	}

	got := s.Summary().IndeterminateHazardIDs
	if diff := cmp.Diff([]string{"c", "a", "b"}, got); diff != "" {
		t.Errorf("indeterminate ids follow insertion order (-want +got):\n%s", diff)
	}
}

func TestSummaryTracksRecordMutations(t *testing.T) {
	s := hazards.NewSession()

	added, err := s.AddHazard("h1")
	if err != nil {
		t.Fatalf("AddHazard: %v", err)
	}
	s.AddHazard("h2")
	s.AddHazard("h3")

	added.UpdateAnswer(hazards.Q1, hazards.No)
	if r, ok := s.Record("h2"); ok {
		r.UpdateAnswer(hazards.Q1, hazards.Yes)
		r.UpdateAnswer(hazards.Q2, hazards.Yes)
	}
	s.Records()[2].UpdateAnswer(hazards.Q1, hazards.No)

	want := hazards.Summary{
		Complete:               true,
		CCPCount:               1,
		PRPCount:               2,
		IndeterminateHazardIDs: []string{},
	}
	got := s.Summary()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}
	if got.Total() != s.Len() {
		t.Errorf("Total() = %d, want Len() = %d", got.Total(), s.Len())
	}

	if err := s.RemoveHazard("h1"); err != nil {
		t.Fatalf("RemoveHazard: %v", err)
	}
	added.UpdateAnswer(hazards.Q1, hazards.Unknown)

	got = s.Summary()
	if got.Total() != s.Len() || got.PRPCount != 1 || !got.Complete {
		t.Errorf("removed record still counted: %+v", got)
	}
}

func TestZeroValueSession(t *testing.T) {
	var s hazards.Session

	if hazards.CanExport(&s) {
		t.Error("empty zero-value session is exportable")
	}

	r, err := s.AddHazard("h1")
	if err != nil {
		t.Fatalf("AddHazard: %v", err)
	}
	r.UpdateAnswer(hazards.Q1, hazards.No)

	if sum := s.Summary(); sum.PRPCount != 1 || sum.Total() != s.Len() {
		t.Errorf("summary = %+v, want one PRP", sum)
	}
	if err := s.RemoveHazard("missing"); !errors.Is(err, hazards.ErrUnknownHazard) {
		t.Errorf("RemoveHazard error = %v, want ErrUnknownHazard", err)
	}
}

func TestSummaryConsistentAfterMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := hazards.NewSession()
	present := map[string]bool{}

	answers := []hazards.Answer{hazards.Unknown, hazards.Yes, hazards.No}
	questions := hazards.Questions()

	for step := range 2000 {
		id := fmt.Sprintf("h%d", rng.IntN(12))

		switch rng.IntN(4) {
		case 0:
			_, err := s.AddHazard(id)
			if present[id] != errors.Is(err, hazards.ErrDuplicateHazard) {
				t.Fatalf("step %d: AddHazard(%s) error = %v, present = %v", step, id, err, present[id])
			}
			present[id] = true
		case 1:
			err := s.RemoveHazard(id)
			if present[id] == (err != nil) {
				t.Fatalf("step %d: RemoveHazard(%s) error = %v, present = %v", step, id, err, present[id])
			}
			delete(present, id)
		default:
			q := questions[rng.IntN(len(questions))]
			a := answers[rng.IntN(len(answers))]
			_, err := s.UpdateAnswer(id, q, a)
			if present[id] == (err != nil) {
				t.Fatalf("step %d: UpdateAnswer(%s) error = %v, present = %v", step, id, err, present[id])
			}
		}

		sum := s.Summary()
		if sum.Total() != s.Len() || s.Len() != len(present) {
			t.Fatalf("step %d: summary total %d, Len %d, expected %d", step, sum.Total(), s.Len(), len(present))
		}
		if sum.Complete != (len(sum.IndeterminateHazardIDs) == 0) {
			t.Fatalf("step %d: Complete = %v with %d indeterminate", step, sum.Complete, len(sum.IndeterminateHazardIDs))
		}

		recount := map[hazards.Classification]int{}
		for _, r := range s.Records() {
			if r.Classification() != hazards.Classify(r.Answers()) {
				t.Fatalf("step %d: %s stored %s, answers give %s", step, r.ID(), r.Classification(), hazards.Classify(r.Answers()))
			}
			recount[r.Classification()]++
		}
		if recount[hazards.CCP] != sum.CCPCount || recount[hazards.OPRP] != sum.OPRPCount || recount[hazards.PRP] != sum.PRPCount {
			t.Fatalf("step %d: counts %+v disagree with records %v", step, sum, recount)
		}
	}
}

func TestRestore(t *testing.T) {
	snaps := []hazards.Snapshot{
		{ID: "h1", Answers: hazards.AnswerSet{Q1: hazards.No}},
		{ID: "h2", Answers: hazards.AnswerSet{Q1: hazards.Yes, Q2: hazards.No, Q3: hazards.Yes, Q4: hazards.Yes}},
		{ID: "h3"},
	}

	s, err := hazards.Restore(snaps)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	want := hazards.Summary{
		OPRPCount:              1,
		PRPCount:               1,
		IndeterminateHazardIDs: []string{"h3"},
	}
	if diff := cmp.Diff(want, s.Summary()); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}

	r, ok := s.Record("h2")
	if !ok {
		t.Fatal("Record(h2) missing")
	}
	if r.Answers() != snaps[1].Answers {
		t.Errorf("h2 answers = %+v, want %+v", r.Answers(), snaps[1].Answers)
	}

	_, err = hazards.Restore([]hazards.Snapshot{{ID: "x"}, {ID: "x"}})
	if !errors.Is(err, hazards.ErrDuplicateHazard) {
		t.Errorf("duplicate restore error = %v, want ErrDuplicateHazard", err)
	}
}
