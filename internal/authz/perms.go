package authz

// Permisos que protegen la superficie administrativa.
const (
	PermAdminKeys     = "admin:keys"
	PermAdminSessions = "admin:sessions"
)
