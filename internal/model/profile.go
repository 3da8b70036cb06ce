package model

// CoachProfile is owned by exactly one User. FavoritesOrder lists the coach's
// athlete favorites in display order by slot number, slot k being the k-th
// athlete in FavoritesIDs. It is always a permutation of 0..n-1.
type CoachProfile struct {
	ID             string  `db:"id" json:"id"`
	UserID         string  `db:"user_id" json:"user_id"`
	TeamID         *string `db:"team_id" json:"team_id,omitempty"`
	CollegeID      *string `db:"college_id" json:"college_id,omitempty"`
	FavoritesOrder []int   `json:"favorites_order"`
}

func (c CoachProfile) Clone() CoachProfile {
	if c.FavoritesOrder != nil {
		c.FavoritesOrder = append(make([]int, 0, len(c.FavoritesOrder)), c.FavoritesOrder...)
	}
	c.TeamID = cloneStringPtr(c.TeamID)
	c.CollegeID = cloneStringPtr(c.CollegeID)
	return c
}

type AthleteProfile struct {
	ID                string   `db:"id" json:"id"`
	UserID            string   `db:"user_id" json:"user_id"`
	TeamID            *string  `db:"team_id" json:"team_id,omitempty"`
	CollegeID         *string  `db:"college_id" json:"college_id,omitempty"`
	HeightFeet        *int     `db:"height_feet" json:"height_feet,omitempty"`
	HeightInches      *int     `db:"height_inches" json:"height_inches,omitempty"`
	Weight            *int     `db:"weight" json:"weight,omitempty"`
	WeightUnit        *string  `db:"weight_unit" json:"weight_unit,omitempty"`
	Gender            *string  `db:"gender" json:"gender,omitempty"`
	GraduationYear    *int     `db:"graduation_year" json:"graduation_year,omitempty"`
	HighSchool        *string  `db:"high_school" json:"high_school,omitempty"`
	Hometown          *string  `db:"hometown" json:"hometown,omitempty"`
	SpringboardRating *float64 `db:"springboard_rating" json:"springboard_rating,omitempty"`
	PlatformRating    *float64 `db:"platform_rating" json:"platform_rating,omitempty"`
	TotalRating       *float64 `db:"total_rating" json:"total_rating,omitempty"`
}

type Team struct {
	ID         string   `db:"id" json:"id"`
	Name       string   `db:"name" json:"name"`
	CoachID    *string  `db:"coach_id" json:"coach_id,omitempty"`
	AthleteIDs []string `json:"athlete_ids"`
}

func (t Team) Clone() Team {
	t.CoachID = cloneStringPtr(t.CoachID)
	t.AthleteIDs = cloneStrings(t.AthleteIDs)
	return t
}

type College struct {
	ID         string   `db:"id" json:"id"`
	Name       string   `db:"name" json:"name"`
	ImageLink  string   `db:"image_link" json:"image_link"`
	CoachID    *string  `db:"coach_id" json:"coach_id,omitempty"`
	AthleteIDs []string `json:"athlete_ids"`
}

func (c College) Clone() College {
	c.CoachID = cloneStringPtr(c.CoachID)
	c.AthleteIDs = cloneStrings(c.AthleteIDs)
	return c
}
