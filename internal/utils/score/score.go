// Package score computes the derived profile-completion score.
package score

import (
	"time"

	"github.com/emberhq/ember-api/internal/db"
)

const (
	maxScore        = 100
	fieldPoints     = 10
	photoPoints     = 6
	promptPoints    = 10
	maxScoredPhotos = 5
	maxPrompts      = 3
)

// ProfileCompletion is a deterministic, monotonic weighted sum over filled
// profile fields, photos and prompts, capped at 100. Fields weigh 10 each,
// photos 6 each (first 5), prompts 10 each (first 3).
func ProfileCompletion(u *db.User, photos []db.UserPhoto, prompts []db.Prompt) int {
	s := 0

	if u.Bio != "" {
		s += fieldPoints
	}
	if u.DateOfBirth != nil {
		s += fieldPoints
	}
	if u.Gender != "" {
		s += fieldPoints
	}
	if u.GenderPreference != "" {
		s += fieldPoints
	}
	if u.DatingIntent != "" {
		s += fieldPoints
	}
	if u.City != "" {
		s += fieldPoints
	}

	s += min(len(photos), maxScoredPhotos) * photoPoints
	s += min(len(prompts), maxPrompts) * promptPoints

	return min(s, maxScore)
}

// Age derives full years from a date of birth.
func Age(dateOfBirth time.Time) int {
	now := time.Now()
	age := now.Year() - dateOfBirth.Year()
	if now.Month() < dateOfBirth.Month() ||
		(now.Month() == dateOfBirth.Month() && now.Day() < dateOfBirth.Day()) {
		age--
	}
	return age
}
