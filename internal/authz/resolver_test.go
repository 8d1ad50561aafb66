package authz_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	"github.com/dropDatabas3/shopauth/internal/store/memory"
)

func newResolver(t *testing.T) (*authz.Resolver, *memory.Directory) {
	t.Helper()
	dir := memory.NewDirectory()
	return authz.NewResolver(dir, dir), dir
}

func TestResolve_UnionDedup(t *testing.T) {
	r, dir := newResolver(t)
	dir.PutRole(repository.Role{Name: "support", Permissions: []string{"orders:read", "tickets:write"}})
	dir.PutPrincipal(repository.Principal{
		ID:               "u-1",
		Role:             "support",
		ExtraPermissions: []string{"orders:read", "admin:sessions"},
	}, "")

	perms, err := r.Resolve(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"orders:read", "tickets:write", "admin:sessions"}
	if !reflect.DeepEqual(perms, want) {
		t.Fatalf("perms = %v, want %v", perms, want)
	}
}

func TestResolve_WildcardPassesThrough(t *testing.T) {
	r, dir := newResolver(t)
	dir.PutRole(repository.Role{Name: "root", Permissions: []string{"*"}})
	dir.PutPrincipal(repository.Principal{ID: "u-1", Role: "root"}, "")

	perms, err := r.Resolve(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(perms, []string{"*"}) {
		t.Fatalf("perms = %v, want [*]", perms)
	}
	// El comodín concede cualquier permiso, incluso no enumerado.
	if !authz.Allows(perms, "admin:keys") {
		t.Fatal("wildcard did not grant admin:keys")
	}
	if !authz.Allows(perms, "anything:at-all") {
		t.Fatal("wildcard did not grant arbitrary permission")
	}
}

func TestResolve_UnknownRoleKeepsExtras(t *testing.T) {
	r, dir := newResolver(t)
	dir.PutPrincipal(repository.Principal{
		ID:               "u-1",
		Role:             "ghost-role",
		ExtraPermissions: []string{"orders:read"},
	}, "")

	perms, err := r.Resolve(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("resolve with unknown role: %v", err)
	}
	if !reflect.DeepEqual(perms, []string{"orders:read"}) {
		t.Fatalf("perms = %v, want [orders:read]", perms)
	}
}

func TestResolve_PrincipalNotFound(t *testing.T) {
	r, _ := newResolver(t)
	if _, err := r.Resolve(context.Background(), "nobody"); !errors.Is(err, repository.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestUnion(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want []string
	}{
		{"disjoint", []string{"a", "b"}, []string{"c"}, []string{"a", "b", "c"}},
		{"overlap keeps first-seen order", []string{"a", "b"}, []string{"a", "c"}, []string{"a", "b", "c"}},
		{"empties skipped", []string{"", "a"}, []string{"", "a"}, []string{"a"}},
		{"both nil", nil, nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := authz.Union(tc.a, tc.b); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Union(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestAllows(t *testing.T) {
	perms := []string{"orders:read", "admin:keys"}
	if !authz.Allows(perms, "admin:keys") {
		t.Fatal("granted permission denied")
	}
	if authz.Allows(perms, "admin:sessions") {
		t.Fatal("missing permission granted")
	}
	if authz.Allows(nil, "orders:read") {
		t.Fatal("empty set granted a permission")
	}
}
