package domain

// Role names. A user belongs to exactly one role; the membership record is
// kept separate from the user item so other backends can implement the same
// repository contract.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	RoleDriver = "driver"
)

type RoleMembership struct {
	UserID     string `json:"user_id" dynamodbav:"user_id"`
	Role       string `json:"role" dynamodbav:"role"`
	AssignedAt string `json:"assigned_at" dynamodbav:"assigned_at"`
}
