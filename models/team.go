package models

import "time"

type Team struct {
	ID          int     `json:"team_id" db:"team_id"`
	HackathonID int     `json:"hackathon_id" db:"hackathon_id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`

	// CaptainID is fixed at creation. The only way to change the captain of a
	// team is to delete the team and create a new one.
	CaptainID string `json:"captain_id" db:"captain_id"`

	// Password is the generated join code. Only the captain ever sees it.
	Password string `json:"-" db:"password"`

	// ParticipantsID is the roster: member identities excluding the captain.
	ParticipantsID []string `json:"participants_id" db:"participants_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Captain      *User  `json:"captain,omitempty" db:"-"`
	Participants []User `json:"participants,omitempty" db:"-"`
}
