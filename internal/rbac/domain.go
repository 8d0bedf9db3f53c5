package rbac

// Role is a closed enumeration of account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Permission represents an atomic capability.
type Permission string

const (
	PermUsersView       Permission = "users.view"
	PermUsersEdit       Permission = "users.edit"
	PermUsersDelete     Permission = "users.delete"
	PermInventoryView   Permission = "inventory.view"
	PermInventoryEdit   Permission = "inventory.edit"
	PermInventoryDelete Permission = "inventory.delete"
)

// ParseRole maps a stored role string to the enumeration. Unknown values
// resolve to RoleCustomer, which carries no permissions.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return Role(s)
	default:
		return RoleCustomer
	}
}

// Valid reports whether s names a known role.
func Valid(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return true
	}
	return false
}
