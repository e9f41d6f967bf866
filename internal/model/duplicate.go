package model

// DuplicateCheck reports whether a parsed transaction already exists in the
// user's committed history. MatchScore is always in [0, 1]; a record is a
// duplicate iff the score reached the duplicate threshold.
type DuplicateCheck struct {
	ExistingID  string
	MatchScore  float64
	IsDuplicate bool
}
