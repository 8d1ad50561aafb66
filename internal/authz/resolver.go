// Package authz computa el conjunto efectivo de permisos de un principal.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

// Resolver combina los permisos del rol con los overrides por principal.
//
// Sin cache: Resolve consulta RoleProvider y PrincipalStore en cada llamada,
// así los cambios de rol/permisos se reflejan sin ventana de staleness.
type Resolver struct {
	Roles      repository.RoleProvider
	Principals repository.PrincipalStore
}

// NewResolver crea un Resolver sobre los colaboradores dados.
func NewResolver(roles repository.RoleProvider, principals repository.PrincipalStore) *Resolver {
	return &Resolver{Roles: roles, Principals: principals}
}

// Resolve retorna role.permissions ∪ principal.extraPermissions, deduplicado
// y preservando el orden de primera aparición. El wildcard "*" pasa tal cual:
// el caller de autorización debe tratarlo como grant universal, no enumerarlo.
func (r *Resolver) Resolve(ctx context.Context, subjectID string) ([]string, error) {
	principal, err := r.Principals.GetPrincipal(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("authz: load principal: %w", err)
	}
	return r.ResolveFor(ctx, principal)
}

// ResolveFor computa el set efectivo para un principal ya cargado.
func (r *Resolver) ResolveFor(ctx context.Context, p *repository.Principal) ([]string, error) {
	var rolePerms []string
	if p.Role != "" {
		role, err := r.Roles.GetRole(ctx, p.Role)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrRoleNotFound) {
				return nil, fmt.Errorf("authz: load role %q: %w", p.Role, err)
			}
			// Rol desconocido: el principal conserva solo sus extras.
		} else {
			rolePerms = role.Permissions
		}
	}
	return Union(rolePerms, p.ExtraPermissions), nil
}

// Union deduplica la unión de dos listas de permisos, orden de primera aparición.
func Union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Allows reporta si el set efectivo concede el permiso pedido.
// El wildcard es un grant universal.
func Allows(perms []string, required string) bool {
	for _, p := range perms {
		if p == repository.PermissionWildcard || p == required {
			return true
		}
	}
	return false
}
