package model

import (
	"encoding/json"
	"fmt"
)

// UserFieldUpdate is a single-field change to a User.
// The set of variants is closed; see ParseUserFieldUpdate.
type UserFieldUpdate interface {
	Field() string
	apply(*User) error
}

type SetFirstName struct{ Value string }
type SetLastName struct{ Value string }
type SetPhone struct{ Value *string }
type SetAccountType struct{ Value AccountType }
type SetDiveMeetsID struct{ Value *string }
type SetFavoritesIDs struct{ Value []string }

func (SetFirstName) Field() string    { return "firstName" }
func (SetLastName) Field() string     { return "lastName" }
func (SetPhone) Field() string        { return "phone" }
func (SetAccountType) Field() string  { return "accountType" }
func (SetDiveMeetsID) Field() string  { return "diveMeetsID" }
func (SetFavoritesIDs) Field() string { return "favoritesIds" }

func (s SetFirstName) apply(u *User) error {
	if s.Value == "" {
		return fmt.Errorf("%w: first name is empty", ErrInvalidFieldValue)
	}
	u.FirstName = s.Value
	return nil
}

func (s SetLastName) apply(u *User) error {
	u.LastName = s.Value
	return nil
}

func (s SetPhone) apply(u *User) error {
	u.Phone = cloneStringPtr(s.Value)
	return nil
}

func (s SetAccountType) apply(u *User) error {
	if !s.Value.Valid() {
		return fmt.Errorf("%w: account type %q", ErrInvalidFieldValue, s.Value)
	}
	u.AccountType = s.Value
	return nil
}

func (s SetDiveMeetsID) apply(u *User) error {
	u.DiveMeetsID = cloneStringPtr(s.Value)
	return nil
}

func (s SetFavoritesIDs) apply(u *User) error {
	u.FavoritesIDs = cloneStrings(s.Value)
	if u.FavoritesIDs == nil {
		u.FavoritesIDs = []string{}
	}
	return nil
}

// ApplyUserUpdate mutates u in place. u is left untouched on error.
func ApplyUserUpdate(u *User, upd UserFieldUpdate) error {
	return upd.apply(u)
}

// ParseUserFieldUpdate decodes a JSON value for the named field.
func ParseUserFieldUpdate(field string, raw json.RawMessage) (UserFieldUpdate, error) {
	var (
		upd UserFieldUpdate
		err error
	)
	switch field {
	case "firstName":
		var v SetFirstName
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	case "lastName":
		var v SetLastName
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	case "phone":
		var v SetPhone
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	case "accountType":
		var v SetAccountType
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	case "diveMeetsID":
		var v SetDiveMeetsID
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	case "favoritesIds":
		var v SetFavoritesIDs
		err = json.Unmarshal(raw, &v.Value)
		upd = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFieldValue, field, err)
	}
	return upd, nil
}

// AthleteFieldUpdate is a single-field change to an AthleteProfile.
type AthleteFieldUpdate interface {
	Field() string
	apply(*AthleteProfile) error
}

type SetHeight struct{ Feet, Inches int }
type SetWeight struct {
	Value int
	Unit  string
}
type SetGender struct{ Value string }
type SetGraduationYear struct{ Value int }
type SetHighSchool struct{ Value string }
type SetHometown struct{ Value string }

func (SetHeight) Field() string         { return "height" }
func (SetWeight) Field() string         { return "weight" }
func (SetGender) Field() string         { return "gender" }
func (SetGraduationYear) Field() string { return "graduationYear" }
func (SetHighSchool) Field() string     { return "highSchool" }
func (SetHometown) Field() string       { return "hometown" }

func (s SetHeight) apply(a *AthleteProfile) error {
	if s.Feet < 0 || s.Inches < 0 || s.Inches > 11 {
		return fmt.Errorf("%w: height %d'%d\"", ErrInvalidFieldValue, s.Feet, s.Inches)
	}
	a.HeightFeet, a.HeightInches = &s.Feet, &s.Inches
	return nil
}

func (s SetWeight) apply(a *AthleteProfile) error {
	if s.Value <= 0 {
		return fmt.Errorf("%w: weight %d", ErrInvalidFieldValue, s.Value)
	}
	unit := s.Unit
	if unit != "lb" && unit != "kg" {
		return fmt.Errorf("%w: weight unit %q", ErrInvalidFieldValue, s.Unit)
	}
	a.Weight, a.WeightUnit = &s.Value, &unit
	return nil
}

func (s SetGender) apply(a *AthleteProfile) error {
	a.Gender = &s.Value
	return nil
}

func (s SetGraduationYear) apply(a *AthleteProfile) error {
	if s.Value < 1900 {
		return fmt.Errorf("%w: graduation year %d", ErrInvalidFieldValue, s.Value)
	}
	a.GraduationYear = &s.Value
	return nil
}

func (s SetHighSchool) apply(a *AthleteProfile) error {
	a.HighSchool = &s.Value
	return nil
}

func (s SetHometown) apply(a *AthleteProfile) error {
	a.Hometown = &s.Value
	return nil
}

func ApplyAthleteUpdate(a *AthleteProfile, upd AthleteFieldUpdate) error {
	return upd.apply(a)
}
