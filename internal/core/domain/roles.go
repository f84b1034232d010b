package domain

// Role represents a user capability in the system.
// Roles are additive: a user may hold EXPERT and ADMIN at the same time.
type Role string

const (
	RoleParticipant Role = "PARTICIPANT"
	RoleExpert      Role = "EXPERT"
	RoleAdmin       Role = "ADMIN"
)

// HasRole reports whether the role set contains the given role.
func HasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsModerator reports whether the role set carries moderation capability
// (EXPERT or ADMIN). All moderation checks go through here so the rule
// is never re-derived at call sites.
func IsModerator(roles []Role) bool {
	return HasRole(roles, RoleExpert) || HasRole(roles, RoleAdmin)
}
