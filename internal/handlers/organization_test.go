package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/dto"
	"github.com/wegovern/governance-api/internal/models"
)

func TestOrganizationHandler_CreateAndList(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")

	w := env.request(t, http.MethodPost, "/api/organizations", jsonBody{"name": "  Tenants Union  "}, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.OrganizationDTO](t, w)
	assert.Equal(t, "Tenants Union", created.Name)
	assert.Equal(t, constants.DefaultMajorityVoteNumber, created.MajorityVoteNumber)
	assert.NotEmpty(t, created.InviteCode)

	w = env.request(t, http.MethodPost, "/api/organizations", jsonBody{"name": "Zero", "majority_vote_number": 0}, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/organizations", jsonBody{}, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/api/organizations", nil, nil).Code)

	w = env.request(t, http.MethodGet, "/api/organizations", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	orgs := decode[map[string][]dto.OrganizationWithRoleDTO](t, w)["organizations"]
	require.Len(t, orgs, 1)
	assert.Equal(t, models.RoleOwner, orgs[0].Role)
	assert.Equal(t, created.InviteCode, orgs[0].InviteCode)
}

func TestOrganizationHandler_JoinAndDetail(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	member := env.signup(t, "member")
	outsider := env.signup(t, "outsider")
	org := env.org(t, 2, owner)

	w := env.request(t, http.MethodPost, "/api/organizations/join", jsonBody{"invite_code": "NOPE1234"}, member)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPost, "/api/organizations/join", jsonBody{"invite_code": org.InviteCode}, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodPost, "/api/organizations/join", jsonBody{"invite_code": org.InviteCode}, member)
	assert.Equal(t, http.StatusConflict, w.Code)

	path := fmt.Sprintf("/api/organizations/%d", org.ID)

	w = env.request(t, http.MethodGet, path, nil, member)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[dto.OrganizationDetailDTO](t, w)
	assert.Len(t, detail.Members, 2)
	assert.Equal(t, models.RoleMember, detail.YourRole)
	assert.False(t, detail.CanProcessApprovals)
	assert.Empty(t, detail.InviteCode)

	w = env.request(t, http.MethodGet, path, nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, org.InviteCode, decode[dto.OrganizationDetailDTO](t, w).InviteCode)

	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, path, nil, outsider).Code)
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, "/api/organizations/9999", nil, owner).Code)
	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodGet, "/api/organizations/abc", nil, owner).Code)
}

func TestOrganizationHandler_Settings(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	member := env.signup(t, "member")
	org := env.org(t, 2, owner, member)
	path := fmt.Sprintf("/api/organizations/%d", org.ID)

	w := env.request(t, http.MethodPut, path, jsonBody{"majority_vote_number": 3}, member)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPut, path, jsonBody{"majority_vote_number": -1}, owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, path, jsonBody{"majority_vote_number": 3, "require_task_approval": true}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.OrganizationDTO](t, w)
	assert.Equal(t, 3, updated.MajorityVoteNumber)
	assert.True(t, updated.RequireTaskApproval)
	assert.False(t, updated.RequireMotionApproval)

	w = env.request(t, http.MethodPost, path+"/regenerate-code", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, org.InviteCode, decode[dto.OrganizationDTO](t, w).InviteCode)

	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodDelete, path, nil, member).Code)
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, path, nil, owner).Code)
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, path, nil, owner).Code)
}

func TestOrganizationHandler_Members(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	org := env.org(t, 2, owner, alice, bob)

	rolePath := func(u *testUser) string {
		return fmt.Sprintf("/api/organizations/%d/members/%d/role", org.ID, u.ID)
	}
	memberPath := func(u *testUser) string {
		return fmt.Sprintf("/api/organizations/%d/members/%d", org.ID, u.ID)
	}

	w := env.request(t, http.MethodPut, rolePath(alice), jsonBody{"role": "admin"}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"organization_id":%d,"user_id":%d,"role":"admin"}`, org.ID, alice.ID), w.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPut, rolePath(bob), jsonBody{"role": "chair"}, owner).Code)
	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodPut, rolePath(owner), jsonBody{"role": "member"}, owner).Code)
	// Only owners change roles
	assert.Equal(t, http.StatusForbidden, env.request(t, http.MethodPut, rolePath(bob), jsonBody{"role": "admin"}, alice).Code)

	// Admins may remove members
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodDelete, memberPath(bob), nil, alice).Code)
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodDelete, memberPath(bob), nil, alice).Code)
	assert.Equal(t, http.StatusBadRequest, env.request(t, http.MethodDelete, memberPath(alice), nil, alice).Code)

	// bob lost access
	assert.Equal(t, http.StatusNotFound, env.request(t, http.MethodGet, fmt.Sprintf("/api/organizations/%d", org.ID), nil, bob).Code)
}
