package memory

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

// Directory implementa PrincipalStore, RoleProvider y CredentialVerifier sobre
// fixtures en memoria. Es el colaborador de dev/tests: el directorio real de
// usuarios vive en el storefront.
type Directory struct {
	mu         sync.RWMutex
	principals map[string]repository.Principal // id -> principal
	byEmail    map[string]string               // email -> id
	passwords  map[string]string               // id -> password (plano, solo fixtures)
	roles      map[string]repository.Role      // name -> role
}

// NewDirectory crea un directorio vacío.
func NewDirectory() *Directory {
	return &Directory{
		principals: make(map[string]repository.Principal),
		byEmail:    make(map[string]string),
		passwords:  make(map[string]string),
		roles:      make(map[string]repository.Role),
	}
}

// PutPrincipal registra o reemplaza un principal (con password opcional).
func (d *Directory) PutPrincipal(p repository.Principal, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.principals[p.ID] = p
	if p.Email != "" {
		d.byEmail[strings.ToLower(p.Email)] = p.ID
	}
	if password != "" {
		d.passwords[p.ID] = password
	}
}

// RemovePrincipal borra un principal (para simular sujetos desaparecidos).
func (d *Directory) RemovePrincipal(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.principals[id]; ok && p.Email != "" {
		delete(d.byEmail, strings.ToLower(p.Email))
	}
	delete(d.principals, id)
	delete(d.passwords, id)
}

// PutRole registra o reemplaza un rol.
func (d *Directory) PutRole(r repository.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[r.Name] = r
}

func (d *Directory) GetPrincipal(ctx context.Context, id string) (*repository.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (d *Directory) GetRole(ctx context.Context, name string) (*repository.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.roles[name]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	cp := r
	return &cp, nil
}

func (d *Directory) VerifyCredentials(ctx context.Context, email, password string) (*repository.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrInvalidCredentials
	}
	want, ok := d.passwords[id]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return nil, repository.ErrInvalidCredentials
	}
	p := d.principals[id]
	cp := p
	return &cp, nil
}
