package types

// ContextKey names a value stored on a request context or gin.Context.
type ContextKey string

func (k ContextKey) String() string { return string(k) }

const (
	// TenantIDContextKey is the authenticated caller's tenant ID, set by
	// auth middleware and read by handlers and agent tools.
	TenantIDContextKey ContextKey = "tenant_id"
	// UserIDContextKey is the authenticated caller's user ID.
	UserIDContextKey ContextKey = "user_id"
)
