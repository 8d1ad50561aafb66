package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/auth"
	"github.com/dropDatabas3/shopauth/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/store/memory"
)

// captureSink acumula los eventos de auditoría emitidos durante el test.
type captureSink struct {
	mu     sync.Mutex
	events []repository.AuditEvent
}

func (c *captureSink) Record(ctx context.Context, ev repository.AuditEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) byAction(action string) []repository.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []repository.AuditEvent
	for _, ev := range c.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	services auth.Services
	issuer   *jwtx.Issuer
	sessions *memory.SessionStore
	dir      *memory.Directory
	audit    *captureSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys := jwtx.NewKeyStore(nil)
	if err := keys.EnsureBootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap keystore: %v", err)
	}
	sessions := memory.NewSessionStore()
	dir := memory.NewDirectory()
	dir.PutRole(repository.Role{Name: "customer", Permissions: []string{"cart:write", "orders:read"}})
	dir.PutPrincipal(repository.Principal{
		ID:    "u-1",
		Email: "ana@shop.test",
		Role:  "customer",
	}, "s3cret")

	issuer := jwtx.NewIssuer("http://auth.test", keys, sessions)
	verifier := jwtx.NewVerifier(issuer, dir)
	sink := &captureSink{}

	return &fixture{
		services: auth.NewServices(auth.Deps{
			Issuer:      issuer,
			Verifier:    verifier,
			Sessions:    sessions,
			Credentials: dir,
			Principals:  dir,
			Resolver:    authz.NewResolver(dir, dir),
			Audit:       sink,
		}),
		issuer:   issuer,
		sessions: sessions,
		dir:      dir,
		audit:    sink,
	}
}

func TestLogin_OK(t *testing.T) {
	f := newFixture(t)

	// El email se normaliza antes de verificar.
	out, err := f.services.Login.Login(context.Background(), dto.LoginRequest{
		Email:    "  ANA@shop.test ",
		Password: "s3cret",
	}, repository.ClientMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.SubjectID != "u-1" {
		t.Fatalf("subject = %q, want u-1", out.SubjectID)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("login returned incomplete token pair")
	}
	sessions, _ := f.sessions.List(context.Background(), "u-1")
	if len(sessions) != 1 {
		t.Fatalf("%d sessions after login, want 1", len(sessions))
	}
	if sessions[0].Client.IP != "10.0.0.1" {
		t.Fatalf("session meta ip = %q, want 10.0.0.1", sessions[0].Client.IP)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ana@shop.test", Password: "wrong",
	}, repository.ClientMeta{})
	if !errors.Is(err, auth.ErrBadCredentials) {
		t.Fatalf("wrong password: expected ErrBadCredentials, got %v", err)
	}

	_, err = f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ghost@shop.test", Password: "s3cret",
	}, repository.ClientMeta{})
	if !errors.Is(err, auth.ErrBadCredentials) {
		t.Fatalf("unknown email: expected ErrBadCredentials, got %v", err)
	}

	// Ningún camino fallido deja sesiones.
	if sessions, _ := f.sessions.List(ctx, "u-1"); len(sessions) != 0 {
		t.Fatalf("%d sessions after failed logins, want 0", len(sessions))
	}
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.services.Login.Login(context.Background(), dto.LoginRequest{Email: "ana@shop.test"}, repository.ClientMeta{})
	if !errors.Is(err, auth.ErrMissingLoginFields) {
		t.Fatalf("expected ErrMissingLoginFields, got %v", err)
	}
}

func TestRefresh_OK(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ana@shop.test", Password: "s3cret",
	}, repository.ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := f.services.Refresh.Refresh(ctx, out.RefreshToken, repository.ClientMeta{})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("refresh returned incomplete pair")
	}
	if rotated.RefreshToken == out.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.services.Refresh.Refresh(context.Background(), "  ", repository.ClientMeta{}); !errors.Is(err, auth.ErrMissingRefreshToken) {
		t.Fatalf("expected ErrMissingRefreshToken, got %v", err)
	}
}

func TestRefresh_GarbageCollapsesToInvalid(t *testing.T) {
	f := newFixture(t)
	if _, err := f.services.Refresh.Refresh(context.Background(), "not-a-jwt", repository.ClientMeta{}); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefresh_ReplayRevokesAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Dos sesiones vivas: la del token a reusar y otra independiente.
	first, err := f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ana@shop.test", Password: "s3cret",
	}, repository.ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ana@shop.test", Password: "s3cret",
	}, repository.ClientMeta{}); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := f.services.Refresh.Refresh(ctx, first.RefreshToken, repository.ClientMeta{}); err != nil {
		t.Fatalf("first rotation: %v", err)
	}

	// Reuso del token ya consumido: 401 genérico hacia afuera...
	_, err = f.services.Refresh.Refresh(ctx, first.RefreshToken, repository.ClientMeta{})
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}

	// ...y adentro, toda la familia de sesiones revocada más rastro auditable.
	if sessions, _ := f.sessions.List(ctx, "u-1"); len(sessions) != 0 {
		t.Fatalf("%d sessions survived the replay escalation, want 0", len(sessions))
	}
	events := f.audit.byAction("refresh.replay_detected")
	if len(events) != 1 {
		t.Fatalf("%d replay audit events, want 1", len(events))
	}
	if events[0].SubjectID != "u-1" {
		t.Fatalf("audit subject = %q, want u-1", events[0].SubjectID)
	}
	if events[0].Detail["sessions_revoked"] != 2 {
		t.Fatalf("audit sessions_revoked = %v, want 2", events[0].Detail["sessions_revoked"])
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.services.Login.Login(ctx, dto.LoginRequest{
		Email: "ana@shop.test", Password: "s3cret",
	}, repository.ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := f.services.Logout.Logout(ctx, out.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions, _ := f.sessions.List(ctx, "u-1"); len(sessions) != 0 {
		t.Fatalf("%d sessions after logout, want 0", len(sessions))
	}

	// Repetir con el mismo token, con basura o sin token no es un error.
	if err := f.services.Logout.Logout(ctx, out.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := f.services.Logout.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("garbage logout: %v", err)
	}
	if err := f.services.Logout.Logout(ctx, ""); err != nil {
		t.Fatalf("empty logout: %v", err)
	}

	// El refresh revocado ya no rota.
	if _, err := f.services.Refresh.Refresh(ctx, out.RefreshToken, repository.ClientMeta{}); !errors.Is(err, auth.ErrInvalidRefreshToken) {
		t.Fatalf("revoked token rotated: %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var last *dto.TokenPairResult
	for i := 0; i < 3; i++ {
		out, err := f.services.Login.Login(ctx, dto.LoginRequest{
			Email: "ana@shop.test", Password: "s3cret",
		}, repository.ClientMeta{})
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		last = out
	}

	n, err := f.services.Logout.LogoutAll(ctx, last.RefreshToken)
	if err != nil {
		t.Fatalf("logout all: %v", err)
	}
	if n != 3 {
		t.Fatalf("revoked %d sessions, want 3", n)
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	me, err := f.services.Me.Me(ctx, "u-1")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != "u-1" || me.Email != "ana@shop.test" || me.Role != "customer" {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if len(me.Permissions) != 2 {
		t.Fatalf("permissions = %v, want the two customer perms", me.Permissions)
	}

	if _, err := f.services.Me.Me(ctx, "ghost"); !errors.Is(err, auth.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}
