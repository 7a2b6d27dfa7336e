package domain

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// UserProfile is the domain representation of a user's profile and stats.
type UserProfile struct {
	ID UserID

	Username string
	Email    string
	Gender   Gender

	TotalPoints     int
	QuestsCompleted int
	QuestsCreated   int

	CreatedAt time.Time
}
