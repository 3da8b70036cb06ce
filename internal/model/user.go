package model

import "time"

type AccountType string

const (
	AccountAthlete   AccountType = "Athlete"
	AccountCoach     AccountType = "Coach"
	AccountSpectator AccountType = "Spectator"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountAthlete, AccountCoach, AccountSpectator:
		return true
	}
	return false
}

// User is the identity record. FavoritesIDs is the follow list and may hold
// ids of users of any account type; SavedPostIDs mirrors the user's
// UserSavedPost rows.
type User struct {
	ID           string      `db:"id" json:"id"`
	FirstName    string      `db:"first_name" json:"first_name"`
	LastName     string      `db:"last_name" json:"last_name"`
	Email        string      `db:"email" json:"email"`
	Phone        *string     `db:"phone" json:"phone,omitempty"`
	DiveMeetsID  *string     `db:"dive_meets_id" json:"dive_meets_id,omitempty"`
	AccountType  AccountType `db:"account_type" json:"account_type"`
	FavoritesIDs []string    `json:"favorites_ids"`
	SavedPostIDs []string    `json:"saved_post_ids"`
	AthleteID    *string     `db:"athlete_id" json:"athlete_id,omitempty"`
	CoachID      *string     `db:"coach_id" json:"coach_id,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAthlete() bool { return u.AccountType == AccountAthlete }

func (u *User) IsCoach() bool { return u.AccountType == AccountCoach }

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Clone returns a copy that shares no slices with u.
func (u User) Clone() User {
	u.FavoritesIDs = cloneStrings(u.FavoritesIDs)
	u.SavedPostIDs = cloneStrings(u.SavedPostIDs)
	u.Phone = cloneStringPtr(u.Phone)
	u.DiveMeetsID = cloneStringPtr(u.DiveMeetsID)
	u.AthleteID = cloneStringPtr(u.AthleteID)
	u.CoachID = cloneStringPtr(u.CoachID)
	return u
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RemoveString returns s without any element equal to v. The result is never nil.
func RemoveString(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
