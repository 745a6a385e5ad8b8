package users

// Role is the closed set of dashboard roles issued by the backend
type Role string

const (
	RoleAdmin          Role = "admin"          // Manages accounts, system config and every resource
	RoleCustomer       Role = "customer"       // Owns vineyard sites and raises work orders
	RoleSiteManager    Role = "siteManager"    // Runs one or more sites, their blocks and work orders
	RoleWorker         Role = "worker"         // Carries out worker tasks
	RoleServiceCompany Role = "serviceCompany" // Contractor supplying workers for work orders
)

var allRoles = []Role{RoleAdmin, RoleCustomer, RoleSiteManager, RoleWorker, RoleServiceCompany}

// All returns every known role
func All() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole maps a backend role string onto a known Role
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}
	return Role(s), false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// In reports whether r is a member of roles
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable role name
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleCustomer:
		return "Customer"
	case RoleSiteManager:
		return "Site manager"
	case RoleWorker:
		return "Worker"
	case RoleServiceCompany:
		return "Service company"
	}
	return string(r)
}
