package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrHackathonNotFound  = errors.New("hackathon not found")
	ErrInvitationNotFound = errors.New("invitation not found")

	// Validation and business rules
	ErrTeamTitleRequired      = errors.New("team title is required")
	ErrHackathonTitleRequired = errors.New("hackathon title is required")
	ErrHackathonInvalidDates  = errors.New("hackathon end date must not be before start date")
	ErrCaptainCannotLeave     = errors.New("the captain cannot leave the team, delete it instead")
	ErrCannotRemoveCaptain    = errors.New("cannot remove the team captain")
	ErrParticipantNotInTeam   = errors.New("participant is not in the team roster")

	// Conflicts
	ErrUserAlreadyInTeam          = errors.New("user already belongs to a team for this hackathon")
	ErrUserAlreadyCaptain         = errors.New("user is already a captain of a team for this hackathon")
	ErrParticipantAlreadyInRoster = errors.New("participant is already in the team roster")
	ErrInvitationAlreadyPending   = errors.New("a pending invitation for this team and participant already exists")
	ErrInvitationNotPending       = errors.New("invitation has already been resolved")

	// Authentication and authorization
	ErrLoginCodeInvalid          = errors.New("login code is invalid or expired")
	ErrInvalidAdminCredentials   = errors.New("invalid admin login or password")
	ErrCaptainActionForbidden    = errors.New("only the team captain can perform this action")
	ErrInvitationActionForbidden = errors.New("this invitation cannot be resolved by the current user")
	ErrTeamPasswordInvalid       = errors.New("team password does not match")
	ErrProfileUpdateForbidden    = errors.New("only the profile owner can update it")
	ErrUnsupportedImageType      = errors.New("unsupported image content type")
)
