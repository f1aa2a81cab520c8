package domain

// UserContext is the authenticated user context injected into request
// handlers. Tokens are issued by the surrounding application; this service
// only validates them.
type UserContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}
