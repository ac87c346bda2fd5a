package model

// Role represents a row of the `roles` table.  A user holds exactly one
// role; a role owns a set of permissions through the role_permission
// join table.
type Role struct {
	ID          uint64
	Name        string
	Description string
}

// Permission represents a row of the `permissions` table.  Names follow
// the "resource:action" convention (e.g. "tour:read"); a trailing "%"
// after the colon ("tour:%") is a wildcard grant covering every action
// on that resource.
type Permission struct {
	ID          uint64
	Name        string
	Description string
}

// RolePermission is a row of the `role_permission` join table.  The pair
// has no identity of its own; its existence grants the permission to
// every user holding the role.
type RolePermission struct {
	RoleID       uint64
	PermissionID uint64
}
