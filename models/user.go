package models

import "time"

// User is a hackathon participant. Identity comes from the messaging bot,
// so TelegramID is the external key everything else references.
type User struct {
	ID          int       `json:"-" db:"id"`
	TelegramID  string    `json:"telegram_id" db:"telegram_id"`
	Username    *string   `json:"username,omitempty" db:"username"`
	Fullname    *string   `json:"fullname,omitempty" db:"fullname"`
	Description *string   `json:"description,omitempty" db:"description"`
	Role        *string   `json:"role,omitempty" db:"role"`
	Tags        []string  `json:"tags" db:"tags"`
	CreatedAt   time.Time `json:"date_registration" db:"date_registration"`

	// HackathonTeams maps a hackathon id (canonical string form) to the id
	// of the single team the user belongs to for that hackathon, either as
	// captain or as a roster member. No entry means unaffiliated.
	HackathonTeams map[string]int `json:"hackathon_teams,omitempty" db:"hackathon_teams"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`
}

// TeamFor returns the team id recorded for the given hackathon key.
func (u *User) TeamFor(hackathonKey string) (int, bool) {
	if u.HackathonTeams == nil {
		return 0, false
	}
	teamID, ok := u.HackathonTeams[hackathonKey]
	return teamID, ok
}
