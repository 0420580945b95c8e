package authstate

// UserRole is the closed set of roles the remote service issues tokens for.
type UserRole string

const (
	// RoleAdmin can manage users, reassign tasks, and change priorities.
	RoleAdmin UserRole = "ADMIN"
	// RoleRM is a relationship manager working their own task queue.
	RoleRM UserRole = "RM"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRM:
		return true
	default:
		return false
	}
}

// CanManageUsers checks if this role can administer other accounts
func (r UserRole) CanManageUsers() bool {
	return r == RoleAdmin
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleRM:    0,
		RoleAdmin: 1,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleRM,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
