package models

import "time"

type Hackathon struct {
	ID          int       `json:"hack_id" db:"hack_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	EventDate   time.Time `json:"event_date" db:"event_date"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	Location    *string   `json:"location,omitempty" db:"location"`

	// ParticipantsCount is a derived cache: the number of distinct users whose
	// membership map references a team of this hackathon. It is recomputed from
	// scratch after every membership-changing operation.
	ParticipantsCount int  `json:"participants_count" db:"participants_count"`
	MaxParticipants   *int `json:"max_participants,omitempty" db:"max_participants"`

	PicKey *string `json:"-" db:"pic_key"`
	PicURL *string `json:"pic_url,omitempty" db:"-"`
}
