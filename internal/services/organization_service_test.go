package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/models"
)

func TestOrganizationService_CreateOrganization(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")

	org, err := e.orgs.CreateOrganization(CreateOrganizationInput{Name: " Garden Club ", OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, "Garden Club", org.Name)
	assert.Equal(t, constants.DefaultMajorityVoteNumber, org.MajorityVoteNumber)
	assert.NotEmpty(t, org.InviteCode)

	member, err := e.orgRepo.FindMember(org.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, member.Role)

	zero := 0
	_, err = e.orgs.CreateOrganization(CreateOrganizationInput{Name: "Bad", OwnerID: owner.ID, MajorityVoteNumber: &zero})
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = e.orgs.CreateOrganization(CreateOrganizationInput{Name: "  ", OwnerID: owner.ID})
	assert.ErrorIs(t, err, ErrInvalidOrganizationName)
}

func TestOrganizationService_UpdateOrganization(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 2, owner)

	threshold := 4
	requireApproval := true
	updated, err := e.orgs.UpdateOrganization(org.ID, UpdateOrganizationInput{MajorityVoteNumber: &threshold, RequireMotionApproval: &requireApproval})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.MajorityVoteNumber)
	assert.True(t, updated.RequireMotionApproval)
	assert.False(t, updated.RequireTaskApproval)

	negative := -1
	_, err = e.orgs.UpdateOrganization(org.ID, UpdateOrganizationInput{MajorityVoteNumber: &negative})
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	reloaded, err := e.orgRepo.FindByID(org.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.MajorityVoteNumber)

	_, err = e.orgs.UpdateOrganization(999, UpdateOrganizationInput{MajorityVoteNumber: &threshold})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestOrganizationService_Membership(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	joiner := e.user(t, "joiner")
	org := e.org(t, 1, owner)

	joined, err := e.orgs.JoinOrganizationByInvite(joiner.ID, org.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, org.ID, joined.ID)

	_, err = e.orgs.JoinOrganizationByInvite(joiner.ID, org.InviteCode)
	assert.ErrorIs(t, err, ErrAlreadyOrganizationMember)

	member, err := e.orgs.Membership(org.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = e.orgs.JoinOrganizationByInvite(joiner.ID, "nope")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	member, err = e.orgs.ChangeMemberRole(org.ID, owner.ID, joiner.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)

	_, err = e.orgs.ChangeMemberRole(org.ID, owner.ID, owner.ID, models.RoleMember)
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	_, err = e.orgs.ChangeMemberRole(org.ID, owner.ID, joiner.ID, "chair")
	assert.ErrorIs(t, err, ErrInvalidRole)

	assert.ErrorIs(t, e.orgs.RemoveMember(org.ID, owner.ID, owner.ID), ErrCannotRemoveYourself)
	require.NoError(t, e.orgs.RemoveMember(org.ID, owner.ID, joiner.ID))
	assert.ErrorIs(t, e.orgs.RemoveMember(org.ID, owner.ID, joiner.ID), ErrOrganizationMemberNotFound)

	_, err = e.orgs.ChangeMemberRole(org.ID, owner.ID, joiner.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrOrganizationMemberNotFound)

	_, err = e.orgs.Membership(org.ID, joiner.ID)
	assert.ErrorIs(t, err, ErrNotOrganizationMember)
}

func TestOrganizationService_RegenerateInviteCode(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 1, owner)

	regenerated, err := e.orgs.RegenerateInviteCode(org.ID)
	require.NoError(t, err)
	assert.NotEqual(t, org.InviteCode, regenerated.InviteCode)

	_, err = e.orgs.JoinOrganizationByInvite(e.user(t, "late").ID, org.InviteCode)
	assert.ErrorIs(t, err, ErrInvalidInviteCode)
}

func TestOrganizationService_DeleteOrganizationCascades(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 5, owner)
	motion := e.motion(t, org, owner, "Close the books")
	e.vote(t, motion, owner, models.VoteFor)

	require.NoError(t, e.orgs.DeleteOrganization(org.ID))
	assert.ErrorIs(t, e.orgs.DeleteOrganization(org.ID), ErrOrganizationNotFound)

	var votes, members int64
	require.NoError(t, e.db.Model(&models.Vote{}).Count(&votes).Error)
	require.NoError(t, e.db.Model(&models.OrganizationMember{}).Count(&members).Error)
	assert.Zero(t, votes)
	assert.Zero(t, members)

	_, err := e.motions.GetMotion(motion.ID)
	assert.ErrorIs(t, err, ErrMotionNotFound)
}
