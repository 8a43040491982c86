package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/dto"
	"github.com/wegovern/governance-api/internal/models"
)

func (e *apiEnv) createIssue(t *testing.T, org *models.Organization, as *testUser, body jsonBody) dto.IssueDTO {
	t.Helper()
	body["organization_id"] = org.ID
	w := e.request(t, http.MethodPost, "/api/issues", body, as)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.IssueDTO](t, w)
}

func TestIssueHandler_Lifecycle(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	member := env.signup(t, "member")
	org := env.org(t, 1, owner, member)

	issue := env.createIssue(t, org, member, jsonBody{"title": "Broken gate", "description": "Hinge snapped"})
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, models.IssuePriorityMedium, issue.Priority)
	require.NotNil(t, issue.Creator)
	assert.Equal(t, member.ID, issue.Creator.ID)

	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	w := env.request(t, http.MethodPut, path, jsonBody{"priority": "HIGH", "assignee_id": owner.ID}, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.IssueDTO](t, w)
	assert.Equal(t, models.IssuePriorityHigh, updated.Priority)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, owner.ID, updated.Assignee.ID)

	w = env.request(t, http.MethodPut, path, jsonBody{"assignee_id": nil}, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[dto.IssueDTO](t, w).AssigneeID)

	w = env.request(t, http.MethodPost, "/api/comments", jsonBody{"issue_id": issue.ID, "text": "Still broken"}, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, path, nil, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decode[dto.IssueDTO](t, w).CommentCount)

	w = env.request(t, http.MethodDelete, path, nil, member)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, path, nil, member)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueHandler_Errors(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	member := env.signup(t, "member")
	outsider := env.signup(t, "outsider")
	org := env.org(t, 1, owner, member)
	issue := env.createIssue(t, org, owner, jsonBody{"title": "Leak"})
	path := fmt.Sprintf("/api/issues/%d", issue.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		as     *testUser
		want   int
	}{
		{"unauthenticated", http.MethodGet, "/api/issues?organization_id=1", nil, nil, http.StatusUnauthorized},
		{"list without organization", http.MethodGet, "/api/issues", nil, owner, http.StatusBadRequest},
		{"list as outsider", http.MethodGet, fmt.Sprintf("/api/issues?organization_id=%d", org.ID), nil, outsider, http.StatusForbidden},
		{"bad status filter", http.MethodGet, fmt.Sprintf("/api/issues?organization_id=%d&status=DONE", org.ID), nil, owner, http.StatusBadRequest},
		{"create without title", http.MethodPost, "/api/issues", jsonBody{"organization_id": org.ID}, owner, http.StatusBadRequest},
		{"create bad priority", http.MethodPost, "/api/issues", jsonBody{"organization_id": org.ID, "title": "x", "priority": "MEH"}, owner, http.StatusBadRequest},
		{"get as outsider", http.MethodGet, path, nil, outsider, http.StatusNotFound},
		{"get unknown", http.MethodGet, "/api/issues/999", nil, owner, http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/api/issues/abc", nil, owner, http.StatusBadRequest},
		{"update by plain member", http.MethodPut, path, jsonBody{"status": "CLOSED"}, member, http.StatusForbidden},
		{"update bad assignee", http.MethodPut, path, jsonBody{"assignee_id": "me"}, owner, http.StatusBadRequest},
		{"update outside assignee", http.MethodPut, path, jsonBody{"assignee_id": outsider.ID}, owner, http.StatusBadRequest},
		{"delete by plain member", http.MethodDelete, path, nil, member, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, tt.method, tt.path, tt.body, tt.as)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestIssueHandler_ListAndStats(t *testing.T) {
	env := setupAPIEnv(t)
	owner := env.signup(t, "owner")
	org := env.org(t, 1, owner)

	env.createIssue(t, org, owner, jsonBody{"title": "a", "priority": "URGENT"})
	env.createIssue(t, org, owner, jsonBody{"title": "b", "status": "RESOLVED", "assignee_id": owner.ID})

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/issues?organization_id=%d&assigned_to_me=true", org.ID), nil, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	listed := decode[struct {
		Issues []dto.IssueDTO `json:"issues"`
	}](t, w)
	require.Len(t, listed.Issues, 1)
	assert.Equal(t, "b", listed.Issues[0].Title)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/issues/stats?organization_id=%d", org.ID), nil, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode[dto.IssueStatsDTO](t, w)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[models.IssueStatusOpen])
	assert.Equal(t, int64(1), stats.ByStatus[models.IssueStatusResolved])
	assert.Equal(t, int64(0), stats.ByStatus[models.IssueStatusClosed])
	assert.Equal(t, int64(1), stats.ByPriority[models.IssuePriorityUrgent])
	assert.Len(t, stats.ByPriority, 4)
}
