package rbac

// Registry holds the role→permission capability sets, computed once at
// startup. Roles are closed; there is no runtime role administration.
type Registry struct {
	grants map[Role]map[Permission]struct{}
}

// NewRegistry builds the static capability matrix. Admin holds every
// permission; manager and staff hold inventory scopes; customer holds none.
func NewRegistry() *Registry {
	all := []Permission{
		PermUsersView, PermUsersEdit, PermUsersDelete,
		PermInventoryView, PermInventoryEdit, PermInventoryDelete,
	}
	grants := map[Role]map[Permission]struct{}{
		RoleAdmin:    permSet(all...),
		RoleManager:  permSet(PermInventoryView, PermInventoryEdit),
		RoleStaff:    permSet(PermInventoryView),
		RoleCustomer: permSet(),
	}
	return &Registry{grants: grants}
}

// Authorize reports whether the role holds the permission.
func (r *Registry) Authorize(role Role, perm Permission) bool {
	if r == nil {
		return false
	}
	set, ok := r.grants[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Permissions returns the capability set of a role.
func (r *Registry) Permissions(role Role) []Permission {
	if r == nil {
		return nil
	}
	set := r.grants[role]
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	return perms
}

func permSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}
