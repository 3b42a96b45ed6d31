package auth

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(role UserRole) bool {
	switch role {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdminRole reports whether the role carries the unconditional admin bypass
func IsAdminRole(role UserRole) bool {
	return role == RoleAdmin
}

// RoleAtLeast checks if the role meets the minimum required level
func RoleAtLeast(role, minRole UserRole) bool {
	hierarchy := map[UserRole]int{
		RoleUser:  0,
		RoleAdmin: 1,
	}

	current, ok := hierarchy[role]
	if !ok {
		return false
	}

	min, ok := hierarchy[minRole]
	if !ok {
		return false
	}

	return current >= min
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

// ParseRole safely parses a string into a UserRole. Unknown or empty values
// resolve to USER so a missing claim never grants admin access.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(raw)
	if IsValidRole(role) {
		return role, true
	}
	return RoleUser, false
}
