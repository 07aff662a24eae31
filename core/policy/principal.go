package policy

import "github.com/colegiohq/backend/core/user"

// Principal is the authenticated identity and role/permission context derived
// from a request's token; every authorization decision takes one.
type Principal struct {
	UserID      int
	SchoolID    int
	Roles       []string
	Permissions []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool { return p.HasRole(user.RoleAdmin) }

func (p Principal) HasPermission(perm string) bool {
	for _, pm := range p.Permissions {
		if pm == perm {
			return true
		}
	}
	return false
}

// PrincipalFor builds the Principal of a stored user.
func PrincipalFor(usr user.User) Principal {
	return Principal{
		UserID:      usr.ID,
		SchoolID:    usr.SchoolID,
		Roles:       usr.Roles(),
		Permissions: usr.Permissions(),
	}
}
