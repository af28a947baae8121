package hazards

// CanExport reports whether a session may be rendered to a final plan
// document: it must hold at least one hazard and every hazard must have a
// concrete classification. The result reflects the session at the moment of
// the call and must not be cached across answer edits.
func CanExport(s *Session) bool {
	if s == nil || s.Len() == 0 {
		return false
	}
	return s.Summary().Complete
}
