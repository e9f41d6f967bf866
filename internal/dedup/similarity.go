// Package dedup decides whether a parsed transaction already exists in the
// user's committed history.
package dedup

import (
	"regexp"
	"strings"
)

// Score weights. Date and amount equality are mandatory filters on the
// candidate query, so every candidate starts at 0.6; the remaining 0.4 is
// scaled by description similarity.
const (
	// DuplicateThreshold is the minimum match score for a record to be
	// flagged as a duplicate of an existing transaction.
	DuplicateThreshold = 0.95

	dateWeight        = 0.3
	amountWeight      = 0.3
	descriptionWeight = 0.4
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWordChars  = regexp.MustCompile(`[^\w\s]`)
)

// normalize prepares a description for comparison: lowercased, trimmed,
// whitespace collapsed, punctuation stripped.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return nonWordChars.ReplaceAllString(s, "")
}

// similarity computes the Dice coefficient over character bigram sets.
// Inputs are assumed normalized. Strings shorter than two characters have
// zero similarity with anything but themselves.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	sizeA := len(bigramsA)

	intersection := 0
	for bg := range bigramsA {
		if bigramsB[bg] {
			intersection++
			// Each bigram counts at most once.
			delete(bigramsB, bg)
		}
	}

	// The second set is measured after consumption, so heavy overlap can
	// push the ratio past 1; cap it so scores stay in [0,1].
	result := 2.0 * float64(intersection) / float64(sizeA+len(bigramsB))
	if result > 1.0 {
		result = 1.0
	}
	return result
}

func bigrams(s string) map[string]bool {
	set := make(map[string]bool, len(s))
	for i := 0; i+2 <= len(s); i++ {
		set[s[i:i+2]] = true
	}
	return set
}

// matchScore scores a candidate that already passed the exact date and
// amount filters against the incoming description.
func matchScore(newDescription, existingDescription string) float64 {
	score := dateWeight + amountWeight

	newDesc := normalize(newDescription)
	existingDesc := normalize(existingDescription)

	if newDesc == existingDesc {
		return score + descriptionWeight
	}
	return score + descriptionWeight*similarity(newDesc, existingDesc)
}
