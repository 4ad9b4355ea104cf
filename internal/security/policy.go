package security

import "datingapp/internal/models"

type Policy string

const (
	PolicyRequireAdminRole Policy = "RequireAdminRole"
	PolicyModeratePhoto    Policy = "ModeratePhoto"
	PolicyVipOnly          Policy = "VipOnly"
)

var policies = map[Policy]map[string]struct{}{
	PolicyRequireAdminRole: roleSet(models.RoleAdmin),
	PolicyModeratePhoto:    roleSet(models.RoleAdmin, models.RoleModerator),
	PolicyVipOnly:          roleSet(models.RoleVIP),
}

// PolicyRoles returns the roles a policy accepts. ok is false for unknown names.
func PolicyRoles(name Policy) (map[string]struct{}, bool) {
	roles, ok := policies[name]
	return roles, ok
}

// Allows reports whether claims satisfy the named policy.
func Allows(name Policy, claims *Claims) bool {
	roles, ok := policies[name]
	if !ok || claims == nil {
		return false
	}
	return claims.HasAnyRole(roles)
}

func roleSet(roles ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}
