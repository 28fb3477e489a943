// Package facet holds the audience filters a user picks before chatting.
package facet

import "strings"

// Selection is a set of optional audience constraints. Blank means no constraint.
type Selection struct {
	Tribe            string
	AgeGroup         string
	Country          string
	Gender           string
	Platform         string
	RAGQuery         string
	MinFollowerCount string
	MinLikesCount    string
}

// IsBlank reports whether v carries no constraint.
func IsBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// IsEmpty reports whether every field is blank.
func (s Selection) IsEmpty() bool {
	for _, v := range []string{
		s.Tribe, s.AgeGroup, s.Country, s.Gender,
		s.Platform, s.RAGQuery, s.MinFollowerCount, s.MinLikesCount,
	} {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}
