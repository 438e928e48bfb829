package services

import (
	"context"
	"testing"

	"github.com/itamhack/hackathon-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invitationFixture(t *testing.T) (*teamServiceFixture, int, *TeamInfo) {
	t.Helper()
	ctx := context.Background()

	f := newTeamServiceFixture()
	hackathon := f.hackathons.add("Spring Hack")
	f.users.add("1001")
	f.users.add("2002")
	f.users.add("3003")

	team, err := f.service.CreateTeam(ctx, CreateTeamInput{HackathonID: hackathon.ID, Title: "rockets"}, "1001")
	require.NoError(t, err)
	return f, hackathon.ID, team
}

func TestInviteParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending captain invitation", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationPending, invitation.Status)
		assert.Equal(t, models.RequestedByCaptain, invitation.RequestedBy)
		assert.Equal(t, hackathonID, invitation.HackathonID)

		user, err := f.users.GetByTelegramID(ctx, nil, "2002")
		require.NoError(t, err)
		_, affiliated := user.TeamFor(hackathonKey(hackathonID))
		assert.False(t, affiliated, "pending invitation must not change membership")
	})

	t.Run("only the captain may invite", func(t *testing.T) {
		f, _, team := invitationFixture(t)
		_, err := f.invitation.InviteParticipant(ctx, team.TeamID, "3003", "2002")
		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
	})

	t.Run("duplicate pending invitation conflicts", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		_, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)
		_, err = f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		assert.ErrorIs(t, err, ErrInvitationAlreadyPending)
	})

	t.Run("affiliated target conflicts", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		other, err := f.service.CreateTeam(ctx, CreateTeamInput{HackathonID: hackathonID, Title: "crabs"}, "3003")
		require.NoError(t, err)
		_, err = f.service.JoinByPassword(ctx, other.TeamID, *other.Password, "2002")
		require.NoError(t, err)

		_, err = f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
	})

	t.Run("unknown target", func(t *testing.T) {
		f, _, team := invitationFixture(t)
		_, err := f.invitation.InviteParticipant(ctx, team.TeamID, "9999", "1001")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip invite then accept", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		accepted, err := f.invitation.AcceptInvitation(ctx, invitation.ID, "2002")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationAccepted, accepted.Status)

		stored, err := f.teams.GetByID(ctx, nil, team.TeamID)
		require.NoError(t, err)
		assert.Contains(t, stored.ParticipantsID, "2002")

		user, err := f.users.GetByTelegramID(ctx, nil, "2002")
		require.NoError(t, err)
		teamID, ok := user.TeamFor(hackathonKey(hackathonID))
		require.True(t, ok)
		assert.Equal(t, team.TeamID, teamID)

		hackathon, err := f.hackathons.GetByID(ctx, nil, hackathonID)
		require.NoError(t, err)
		assert.Equal(t, 2, hackathon.ParticipantsCount)
	})

	t.Run("only the invitee may accept", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		_, err = f.invitation.AcceptInvitation(ctx, invitation.ID, "3003")
		assert.ErrorIs(t, err, ErrInvitationActionForbidden)
	})

	t.Run("accept of a resolved invitation conflicts", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		_, err = f.invitation.AcceptInvitation(ctx, invitation.ID, "2002")
		require.NoError(t, err)
		_, err = f.invitation.AcceptInvitation(ctx, invitation.ID, "2002")
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})

	t.Run("stale invitation auto declines when already affiliated", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		other, err := f.service.CreateTeam(ctx, CreateTeamInput{HackathonID: hackathonID, Title: "crabs"}, "3003")
		require.NoError(t, err)
		_, err = f.service.JoinByPassword(ctx, other.TeamID, *other.Password, "2002")
		require.NoError(t, err)

		_, err = f.invitation.AcceptInvitation(ctx, invitation.ID, "2002")
		assert.ErrorIs(t, err, ErrUserAlreadyInTeam)

		// The decline sticks even though the accept reported a conflict.
		stored, err := f.invitations.GetByID(ctx, nil, invitation.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationDeclined, stored.Status)
	})

	t.Run("captain request cannot be accepted by captain path", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)

		_, err = f.invitation.AcceptInvitation(ctx, request.ID, "2002")
		assert.ErrorIs(t, err, ErrInvitationActionForbidden)
	})
}

func TestApproveRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("request then approve round trip", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)
		assert.Equal(t, models.RequestedByParticipant, request.RequestedBy)

		approved, err := f.invitation.ApproveRequest(ctx, request.ID, "1001")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationAccepted, approved.Status)

		user, err := f.users.GetByTelegramID(ctx, nil, "2002")
		require.NoError(t, err)
		teamID, ok := user.TeamFor(hackathonKey(hackathonID))
		require.True(t, ok)
		assert.Equal(t, team.TeamID, teamID)
	})

	t.Run("only the captain may approve", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)

		_, err = f.invitation.ApproveRequest(ctx, request.ID, "2002")
		assert.ErrorIs(t, err, ErrInvitationActionForbidden)
	})

	t.Run("approved member cannot request again", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)
		_, err = f.invitation.ApproveRequest(ctx, request.ID, "1001")
		require.NoError(t, err)

		_, err = f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
	})

	t.Run("declined request can be re-issued", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)

		_, err = f.invitation.DeclineInvitation(ctx, request.ID, "1001")
		require.NoError(t, err)

		again, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)
		assert.NotEqual(t, request.ID, again.ID)
	})
}

func TestDeclineInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("invitee declines a captain invitation", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		declined, err := f.invitation.DeclineInvitation(ctx, invitation.ID, "2002")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationDeclined, declined.Status)

		user, err := f.users.GetByTelegramID(ctx, nil, "2002")
		require.NoError(t, err)
		_, affiliated := user.TeamFor(hackathonKey(hackathonID))
		assert.False(t, affiliated)
	})

	t.Run("captain declines a join request", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)

		declined, err := f.invitation.DeclineInvitation(ctx, request.ID, "1001")
		require.NoError(t, err)
		assert.Equal(t, models.InvitationDeclined, declined.Status)
	})

	t.Run("requester cannot decline own request", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		request, err := f.invitation.RequestToJoin(ctx, team.TeamID, "2002")
		require.NoError(t, err)

		_, err = f.invitation.DeclineInvitation(ctx, request.ID, "2002")
		assert.ErrorIs(t, err, ErrInvitationActionForbidden)
	})

	t.Run("decline of a resolved invitation conflicts", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		invitation, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		_, err = f.invitation.DeclineInvitation(ctx, invitation.ID, "2002")
		require.NoError(t, err)
		_, err = f.invitation.DeclineInvitation(ctx, invitation.ID, "2002")
		assert.ErrorIs(t, err, ErrInvitationNotPending)
	})
}

func TestListInvitations(t *testing.T) {
	ctx := context.Background()

	t.Run("pending invitations for a participant", func(t *testing.T) {
		f, hackathonID, team := invitationFixture(t)

		_, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		pending, err := f.invitation.ListPendingForParticipant(ctx, "2002", hackathonID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, team.TeamID, pending[0].TeamID)

		none, err := f.invitation.ListPendingForParticipant(ctx, "3003", hackathonID)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("team listing is captain only", func(t *testing.T) {
		f, _, team := invitationFixture(t)

		_, err := f.invitation.InviteParticipant(ctx, team.TeamID, "2002", "1001")
		require.NoError(t, err)

		invitations, err := f.invitation.ListForTeam(ctx, team.TeamID, "1001")
		require.NoError(t, err)
		assert.Len(t, invitations, 1)

		_, err = f.invitation.ListForTeam(ctx, team.TeamID, "2002")
		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
	})
}
