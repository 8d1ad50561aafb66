package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/shopauth/internal/authz"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	adminctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/auth"
	"github.com/dropDatabas3/shopauth/internal/http/controllers/discovery"
	healthctrl "github.com/dropDatabas3/shopauth/internal/http/controllers/health"
	"github.com/dropDatabas3/shopauth/internal/http/helpers"
	"github.com/dropDatabas3/shopauth/internal/http/router"
	adminsvc "github.com/dropDatabas3/shopauth/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/shopauth/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/store/memory"
)

// testEnv arma el stack completo sobre stores en memoria, igual que el wiring
// de server.Build pero con fixtures sembradas.
type testEnv struct {
	handler  http.Handler
	keys     *jwtx.KeyStore
	sessions *memory.SessionStore
	dir      *memory.Directory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	keys := jwtx.NewKeyStore(nil)
	if err := keys.EnsureBootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap keystore: %v", err)
	}
	sessions := memory.NewSessionStore()
	dir := memory.NewDirectory()
	dir.PutRole(repository.Role{Name: "customer", Permissions: []string{"cart:write"}})
	dir.PutRole(repository.Role{Name: "platform-admin", Permissions: []string{"*"}})
	dir.PutPrincipal(repository.Principal{ID: "u-cust", Email: "ana@shop.test", Role: "customer"}, "s3cret")
	dir.PutPrincipal(repository.Principal{ID: "u-admin", Email: "root@shop.test", Role: "platform-admin"}, "hunter2")

	issuer := jwtx.NewIssuer("http://auth.test", keys, sessions)
	verifier := jwtx.NewVerifier(issuer, dir)
	resolver := authz.NewResolver(dir, dir)
	cookies := helpers.CookieConfig{}

	authServices := authsvc.NewServices(authsvc.Deps{
		Issuer:      issuer,
		Verifier:    verifier,
		Sessions:    sessions,
		Credentials: dir,
		Principals:  dir,
		Resolver:    resolver,
	})
	adminServices := adminsvc.NewServices(adminsvc.Deps{
		Keys:     keys,
		Sessions: sessions,
	})

	handler := router.New(router.Deps{
		AuthControllers:  authctrl.NewControllers(authServices, authctrl.ControllerDeps{Cookies: cookies}),
		AdminControllers: adminctrl.NewControllers(adminServices),
		JWKS:             discovery.NewJWKSController(keys),
		Health:           healthctrl.NewHealthController(keys, nil),
		Verifier:         verifier,
		Resolver:         resolver,
	})
	return &testEnv{handler: handler, keys: keys, sessions: sessions, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

func (e *testEnv) login(t *testing.T, email, password string) tokenPair {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v2/auth/login", map[string]string{
		"email": email, "password": password,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var pair tokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return pair
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestLoginAndMe(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	if pair.TokenType != "Bearer" || pair.ExpiresIn <= 0 {
		t.Fatalf("unexpected token metadata: %+v", pair)
	}

	rec := e.do(t, http.MethodGet, "/v2/me", nil, bearer(pair.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	var me struct {
		ID          string   `json:"id"`
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != "u-cust" || me.Role != "customer" {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if len(me.Permissions) != 1 || me.Permissions[0] != "cart:write" {
		t.Fatalf("permissions = %v, want [cart:write]", me.Permissions)
	}
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/v2/auth/login", map[string]string{
		"email": "ana@shop.test", "password": "s3cret",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	var access, refresh *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		switch ck.Name {
		case "access_token":
			access = ck
		case "refresh_token":
			refresh = ck
		}
	}
	if access == nil || refresh == nil {
		t.Fatal("login did not set both session cookies")
	}
	if !access.HttpOnly || !refresh.HttpOnly {
		t.Fatal("session cookies must be HttpOnly")
	}
	if refresh.Path != "/v2/auth" {
		t.Fatalf("refresh cookie path = %q, want /v2/auth", refresh.Path)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/v2/auth/login", map[string]string{
		"email": "ana@shop.test", "password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Fatalf("code = %q, want INVALID_CREDENTIALS", code)
	}
}

func TestMe_RejectsBadTokens(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	cases := []struct {
		name string
		mod  func(*http.Request)
	}{
		{"no token", nil},
		{"garbage", bearer("garbage")},
		{"tampered", bearer(tamper(pair.AccessToken))},
		{"refresh as access", bearer(pair.RefreshToken)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/v2/me", nil, tc.mod)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("missing WWW-Authenticate header")
			}
		})
	}
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	return strings.Join(parts, ".")
}

func TestRefresh_RotatesViaBody(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	rec := e.do(t, http.MethodPost, "/v2/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rotated tokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &rotated); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if rotated.AccessToken == "" {
		t.Fatal("no access token in rotation response")
	}
}

func TestRefresh_RotatesViaCookie(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	rec := e.do(t, http.MethodPost, "/v2/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.RefreshToken})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRefresh_ReplayIsGeneric401AndRevokesFamily(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	first := e.do(t, http.MethodPost, "/v2/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first rotation status = %d", first.Code)
	}

	replay := e.do(t, http.MethodPost, "/v2/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", replay.Code)
	}
	// Mismo código que cualquier otro rechazo: sin oráculo de replay.
	if code := errorCode(t, replay); code != "SESSION_INVALID" {
		t.Fatalf("replay code = %q, want SESSION_INVALID", code)
	}
	garbage := e.do(t, http.MethodPost, "/v2/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	}, nil)
	if code := errorCode(t, garbage); code != "SESSION_INVALID" {
		t.Fatalf("garbage code = %q, want SESSION_INVALID", code)
	}

	// La escalación revocó todas las sesiones del sujeto.
	sessions, _ := e.sessions.List(context.Background(), "u-cust")
	if len(sessions) != 0 {
		t.Fatalf("%d sessions survived replay escalation, want 0", len(sessions))
	}
}

func TestLogout_RevokesAndClearsCookies(t *testing.T) {
	e := newTestEnv(t)
	pair := e.login(t, "ana@shop.test", "s3cret")

	rec := e.do(t, http.MethodPost, "/v2/auth/logout", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rec.Code)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge != -1 {
			t.Fatalf("cookie %s not marked for deletion", ck.Name)
		}
	}

	// El refresh revocado ya no rota.
	rec = e.do(t, http.MethodPost, "/v2/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d, want 401", rec.Code)
	}

	// Logout repetido sigue siendo 204.
	rec = e.do(t, http.MethodPost, "/v2/auth/logout", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second logout status = %d, want 204", rec.Code)
	}
}

func TestAdminKeys_RBAC(t *testing.T) {
	e := newTestEnv(t)
	cust := e.login(t, "ana@shop.test", "s3cret")
	admin := e.login(t, "root@shop.test", "hunter2")

	// Sin permiso: 403. Sin token: 401.
	rec := e.do(t, http.MethodGet, "/v2/admin/keys", nil, bearer(cust.AccessToken))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d, want 403", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/v2/admin/keys", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	// El comodín del rol admin concede admin:keys.
	rec = e.do(t, http.MethodGet, "/v2/admin/keys", nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Keys []struct {
			KID    string `json:"kid"`
			Status string `json:"status"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	if len(body.Keys) != 1 || body.Keys[0].Status != "active" {
		t.Fatalf("unexpected key list: %+v", body.Keys)
	}
}

func TestAdminKeys_UploadAndSoftDeactivate(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "root@shop.test", "hunter2")

	priv, err := jwtx.GenerateRSA(2048)
	if err != nil {
		t.Fatalf("generate rsa: %v", err)
	}
	pubPEM, _ := jwtx.EncodePublicKeyPEM(&priv.PublicKey)
	privPEM, _ := jwtx.EncodePrivateKeyPEM(priv)

	rec := e.do(t, http.MethodPost, "/v2/admin/keys", map[string]string{
		"public_pem":  string(pubPEM),
		"private_pem": string(privPEM),
	}, bearer(admin.AccessToken))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		KID    string `json:"kid"`
		Active bool   `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if uploaded.KID == "" {
		t.Fatal("upload returned empty kid")
	}
	if !uploaded.Active {
		t.Fatal("uploaded key not reported active")
	}

	// El JWKS publica la clave nueva al instante.
	if !jwksHasKID(t, e, uploaded.KID) {
		t.Fatalf("jwks does not list uploaded kid %s", uploaded.KID)
	}

	// DELETE = desactivación blanda: 200 con el registro desactivado, sale del
	// JWKS pero el registro la retiene.
	rec = e.do(t, http.MethodDelete, "/v2/admin/keys/"+uploaded.KID, nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
	var deleted struct {
		KID    string `json:"kid"`
		Active bool   `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decode delete: %v", err)
	}
	if deleted.KID != uploaded.KID || deleted.Active {
		t.Fatalf("delete body = %+v, want inactive %s", deleted, uploaded.KID)
	}
	if jwksHasKID(t, e, uploaded.KID) {
		t.Fatalf("jwks still lists deactivated kid %s", uploaded.KID)
	}
	if _, err := e.keys.Get(uploaded.KID); err != nil {
		t.Fatalf("deactivated key purged from registry: %v", err)
	}

	// PATCH {"active": true} la vuelve a publicar.
	rec = e.do(t, http.MethodPatch, "/v2/admin/keys/"+uploaded.KID, map[string]bool{
		"active": true,
	}, bearer(admin.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Active bool `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	if !patched.Active {
		t.Fatal("patched key not reported active")
	}
	if !jwksHasKID(t, e, uploaded.KID) {
		t.Fatalf("jwks does not list reactivated kid %s", uploaded.KID)
	}
}

func TestAdminKeys_BadUpload(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "root@shop.test", "hunter2")

	rec := e.do(t, http.MethodPost, "/v2/admin/keys", map[string]string{
		"public_pem": "not pem at all",
	}, bearer(admin.AccessToken))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad upload status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_KEY_MATERIAL" {
		t.Fatalf("code = %q, want INVALID_KEY_MATERIAL", code)
	}
}

func jwksHasKID(t *testing.T, e *testEnv, kid string) bool {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("jwks status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("jwks Cache-Control = %q, want no-store", cc)
	}
	var doc struct {
		Keys []struct {
			KID string `json:"kid"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode jwks: %v", err)
	}
	for _, k := range doc.Keys {
		if k.KID == kid {
			return true
		}
	}
	return false
}

func TestAdminSessions(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "root@shop.test", "hunter2")

	// Tres sesiones del customer.
	for i := 0; i < 3; i++ {
		e.login(t, "ana@shop.test", "s3cret")
	}

	rec := e.do(t, http.MethodGet, "/v2/admin/users/u-cust/sessions", nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Sessions []struct {
			JTI string `json:"jti"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(listed.Sessions) != 3 {
		t.Fatalf("%d sessions listed, want 3", len(listed.Sessions))
	}

	// Revocación puntual.
	rec = e.do(t, http.MethodDelete,
		fmt.Sprintf("/v2/admin/users/u-cust/sessions/%s", listed.Sessions[0].JTI),
		nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("revoke status = %d, want 204", rec.Code)
	}
	rec = e.do(t, http.MethodDelete,
		fmt.Sprintf("/v2/admin/users/u-cust/sessions/%s", listed.Sessions[0].JTI),
		nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second revoke status = %d, want 404", rec.Code)
	}

	// Revocación masiva del resto.
	rec = e.do(t, http.MethodDelete, "/v2/admin/users/u-cust/sessions", nil, bearer(admin.AccessToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke-all status = %d", rec.Code)
	}
	var out struct {
		Revoked int `json:"revoked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode revoke-all: %v", err)
	}
	if out.Revoked != 2 {
		t.Fatalf("revoked = %d, want 2", out.Revoked)
	}
}

func TestUnknownRouteAndHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_FOUND" {
		t.Fatalf("code = %q, want NOT_FOUND", code)
	}

	rec = e.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-JWKS-KID") == "" {
		t.Fatal("readyz missing X-JWKS-KID header")
	}
}
