package constants

const (
	// ContextKeyUserID is the session and gin context key holding the authenticated user ID
	ContextKeyUserID = "user_id"

	// ContextKeyOrganization and ContextKeyOrganizationMember hold the
	// organization resolved by the organization access middleware
	ContextKeyOrganization       = "organization"
	ContextKeyOrganizationMember = "organization_member"

	ContextKeyTask   = "task"
	ContextKeyMotion = "motion"
	ContextKeyIssue  = "issue"

	// SessionCookieName is the name of the session cookie
	SessionCookieName = "govern_session"

	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxAIGeneratedTasks caps the number of tasks accepted from a single AI draft
	MaxAIGeneratedTasks = 20

	// DefaultMajorityVoteNumber is the threshold given to organizations created without one
	DefaultMajorityVoteNumber = 1
)
