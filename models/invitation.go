package models

import "time"

// InvitationStatus matches the ENUM values stored in the database.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// RequestedBy records who initiated the invitation. It decides who is allowed
// to resolve it: a captain-initiated invitation is resolved by the invited
// participant, a participant-initiated join request by the team captain.
type RequestedBy string

const (
	RequestedByCaptain     RequestedBy = "captain"
	RequestedByParticipant RequestedBy = "participant"
)

// TeamInvitation links a team, a hackathon and a participant. Hackathon and
// captain ids are denormalized from the team so invitation lists do not need
// a team lookup. Once accepted or declined the row is immutable.
type TeamInvitation struct {
	ID            int              `json:"invitation_id" db:"invitation_id"`
	TeamID        int              `json:"team_id" db:"team_id"`
	HackathonID   int              `json:"hackathon_id" db:"hackathon_id"`
	CaptainID     string           `json:"captain_id" db:"captain_id"`
	ParticipantID string           `json:"participant_id" db:"participant_id"`
	Status        InvitationStatus `json:"status" db:"status"`
	RequestedBy   RequestedBy      `json:"requested_by" db:"requested_by"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}
