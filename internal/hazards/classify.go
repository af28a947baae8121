package hazards

// Classification is the control type a hazard requires.
type Classification string

const (
	CCP           Classification = "CCP"
	OPRP          Classification = "OPRP"
	PRP           Classification = "PRP"
	Indeterminate Classification = "INDETERMINATE"
)

var classifications = []Classification{CCP, OPRP, PRP, Indeterminate}

// Classifications returns every classification value.
func Classifications() []Classification {
	return append([]Classification(nil), classifications...)
}

// Concrete reports whether the classification settles the hazard's control type.
func (c Classification) Concrete() bool {
	return c == CCP || c == OPRP || c == PRP
}

// Classify walks the Codex decision tree over answers. The first rule that
// matches decides, and no later question is read once an earlier one has
// decided. Any answer that is neither Yes nor No is treated as Unknown.
func Classify(answers AnswerSet) Classification {
	switch answers.Q1 {
	case No:
		return PRP
	case Yes:
	default:
		return Indeterminate
	}

	switch answers.Q2 {
	case Yes:
		return CCP
	case No:
	default:
		return Indeterminate
	}

	switch answers.Q3 {
	case Yes:
		switch answers.Q4 {
		case Yes:
			return OPRP
		case No:
			return CCP
		default:
			return Indeterminate
		}
	case No:
		return OPRP
	default:
		return Indeterminate
	}
}
