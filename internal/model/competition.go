package model

import "time"

type Event struct {
	ID      string    `db:"id" json:"id"`
	MeetID  string    `db:"meet_id" json:"meet_id"`
	Name    string    `db:"name" json:"name"`
	Date    time.Time `db:"date" json:"date"`
	DiveIDs []string  `json:"dive_ids"`
}

func (e Event) Clone() Event {
	e.DiveIDs = cloneStrings(e.DiveIDs)
	return e
}

// Dive is one athlete's attempt in one event.
type Dive struct {
	ID         string  `db:"id" json:"id"`
	AthleteID  string  `db:"athlete_id" json:"athlete_id"`
	EventID    string  `db:"event_id" json:"event_id"`
	Number     string  `db:"number" json:"number"`
	Name       string  `db:"name" json:"name"`
	Height     float64 `db:"height" json:"height"`
	NetScore   float64 `db:"net_score" json:"net_score"`
	DD         float64 `db:"dd" json:"dd"`
	TotalScore float64 `db:"total_score" json:"total_score"`
}

type JudgeScore struct {
	ID     string  `db:"id" json:"id"`
	DiveID string  `db:"dive_id" json:"dive_id"`
	Score  float64 `db:"score" json:"score"`
}
