package constants

// Context keys shared between middleware and handlers.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyWorkspace = "workspace"
	ContextKeyMember    = "workspace_member"
	ContextKeyProject   = "project"
)

// SessionCookieName is the cookie holding the session id.
const SessionCookieName = "workspace_session"

// Validation limits.
const (
	MinPasswordLength = 8
)

// Pagination defaults.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
