package jwt

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

var (
	// ErrNoActiveKey: no hay clave activa con material privado para firmar.
	// Es un fallo de configuración, no un 401 por-request.
	ErrNoActiveKey = errors.New("no_active_signing_key")

	// ErrKeyNotFound: el kid no existe en el registro.
	ErrKeyNotFound = errors.New("kid_not_found")
)

// keyEntry es una SigningKey con su material parseado.
type keyEntry struct {
	rec  repository.SigningKey
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey // nil para claves solo-verificación
}

// KeyStore es el registro de claves de firma. Se construye una vez, se puebla
// desde el SigningKeyStore persistido en el arranque y se muta solo vía su API.
//
// Lecturas bajo RLock sobre el snapshot en memoria: sin TTL, una desactivación
// es visible en la siguiente lectura de JWKS apenas retorna Deactivate.
type KeyStore struct {
	store repository.SigningKeyStore

	mu   sync.RWMutex
	keys map[string]*keyEntry
}

// NewKeyStore crea un KeyStore vacío sobre el store persistente dado.
// store puede ser nil (registro efímero, útil en tests).
func NewKeyStore(store repository.SigningKeyStore) *KeyStore {
	return &KeyStore{
		store: store,
		keys:  make(map[string]*keyEntry),
	}
}

// Load puebla el snapshot desde el store persistente. Llamar en el arranque.
func (ks *KeyStore) Load(ctx context.Context) error {
	if ks.store == nil {
		return nil
	}
	recs, err := ks.store.ListSigningKeys(ctx)
	if err != nil {
		return fmt.Errorf("keystore: load: %w", err)
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	for i := range recs {
		e, err := newKeyEntry(recs[i])
		if err != nil {
			return fmt.Errorf("keystore: load kid %s: %w", recs[i].KID, err)
		}
		ks.keys[e.rec.KID] = e
	}
	return nil
}

func newKeyEntry(rec repository.SigningKey) (*keyEntry, error) {
	pub, err := ParsePublicKeyPEM(rec.PublicPEM)
	if err != nil {
		return nil, err
	}
	e := &keyEntry{rec: rec, pub: pub}
	if len(rec.PrivatePEM) > 0 {
		priv, err := ParsePrivateKeyPEM(rec.PrivatePEM)
		if err != nil {
			return nil, err
		}
		e.priv = priv
	}
	return e, nil
}

// Register registra material de clave y retorna su kid determinístico.
// Idempotente: material idéntico produce el mismo kid y no duplica el registro.
// Claves nuevas entran activas.
func (ks *KeyStore) Register(ctx context.Context, publicPEM, privatePEM []byte, alg, use string) (string, error) {
	if alg != AlgRS256 {
		return "", fmt.Errorf("%w: unsupported alg %q", ErrKeyUploadInvalid, alg)
	}
	if use != UseSig {
		return "", fmt.Errorf("%w: unsupported use %q", ErrKeyUploadInvalid, use)
	}

	pub, err := ParsePublicKeyPEM(publicPEM)
	if err != nil {
		return "", err
	}
	var priv *rsa.PrivateKey
	if len(privatePEM) > 0 {
		priv, err = ParsePrivateKeyPEM(privatePEM)
		if err != nil {
			return "", err
		}
		if priv.PublicKey.N.Cmp(pub.N) != 0 || priv.PublicKey.E != pub.E {
			return "", fmt.Errorf("%w: private key does not match public key", ErrKeyUploadInvalid)
		}
	}

	kid, err := ComputeKID(pub)
	if err != nil {
		return "", err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if existing, ok := ks.keys[kid]; ok {
		// Registro idempotente. Si ahora llega el material privado que
		// faltaba, lo adjuntamos.
		if existing.priv == nil && priv != nil {
			existing.priv = priv
			existing.rec.PrivatePEM = privatePEM
			if ks.store != nil {
				if err := ks.store.InsertSigningKey(ctx, &existing.rec); err != nil {
					return "", fmt.Errorf("keystore: persist key: %w", err)
				}
			}
		}
		return kid, nil
	}

	rec := repository.SigningKey{
		KID:        kid,
		Alg:        alg,
		Use:        use,
		PublicPEM:  publicPEM,
		PrivatePEM: privatePEM,
		Status:     repository.KeyActive,
		CreatedAt:  time.Now().UTC(),
	}
	if ks.store != nil {
		if err := ks.store.InsertSigningKey(ctx, &rec); err != nil {
			return "", fmt.Errorf("keystore: persist key: %w", err)
		}
	}
	ks.keys[kid] = &keyEntry{rec: rec, pub: pub, priv: priv}
	return kid, nil
}

// Get retorna el registro para un kid, incluyendo claves inactivas.
// Semántica soft-rotate: una clave desactivada deja de publicarse y de firmar,
// pero los tokens ya emitidos con ella siguen verificando hasta su exp.
func (ks *KeyStore) Get(kid string) (*repository.SigningKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	e, ok := ks.keys[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := e.rec
	return &cp, nil
}

// PublicKeyByKID resuelve la clave pública para un kid (activa o no).
func (ks *KeyStore) PublicKeyByKID(kid string) (*rsa.PublicKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	e, ok := ks.keys[kid]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return e.pub, nil
}

// Deactivate marca la clave como inactiva. No-op si ya lo estaba.
// El material se retiene, nunca se purga.
func (ks *KeyStore) Deactivate(ctx context.Context, kid string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e, ok := ks.keys[kid]
	if !ok {
		return ErrKeyNotFound
	}
	if e.rec.Status == repository.KeyInactive {
		return nil
	}
	if ks.store != nil {
		if err := ks.store.SetSigningKeyStatus(ctx, kid, repository.KeyInactive); err != nil {
			return fmt.Errorf("keystore: deactivate: %w", err)
		}
	}
	e.rec.Status = repository.KeyInactive
	return nil
}

// Activate re-activa una clave desactivada. No-op si ya estaba activa.
func (ks *KeyStore) Activate(ctx context.Context, kid string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	e, ok := ks.keys[kid]
	if !ok {
		return ErrKeyNotFound
	}
	if e.rec.Status == repository.KeyActive {
		return nil
	}
	if ks.store != nil {
		if err := ks.store.SetSigningKeyStatus(ctx, kid, repository.KeyActive); err != nil {
			return fmt.Errorf("keystore: activate: %w", err)
		}
	}
	e.rec.Status = repository.KeyActive
	return nil
}

// ListActive retorna las claves activas use=sig, más reciente primero.
// Es el insumo del JWKS: nunca incluye material privado.
func (ks *KeyStore) ListActive() []repository.SigningKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	out := make([]repository.SigningKey, 0, len(ks.keys))
	for _, e := range ks.keys {
		if e.rec.Status == repository.KeyActive && e.rec.Use == UseSig {
			cp := e.rec
			cp.PrivatePEM = nil
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// List retorna todas las claves (sin material privado), más reciente primero.
func (ks *KeyStore) List() []repository.SigningKey {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	out := make([]repository.SigningKey, 0, len(ks.keys))
	for _, e := range ks.keys {
		cp := e.rec
		cp.PrivatePEM = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ActiveSigner retorna la clave de firma vigente: la activa registrada más
// recientemente que tenga material privado.
func (ks *KeyStore) ActiveSigner() (string, *rsa.PrivateKey, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	var best *keyEntry
	for _, e := range ks.keys {
		if e.rec.Status != repository.KeyActive || e.priv == nil {
			continue
		}
		if best == nil || e.rec.CreatedAt.After(best.rec.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return "", nil, ErrNoActiveKey
	}
	return best.rec.KID, best.priv, nil
}

// EnsureBootstrap genera un par RSA si el registro no tiene ninguna clave
// activa firmante. Pensado para entornos dev/primer arranque.
func (ks *KeyStore) EnsureBootstrap(ctx context.Context) error {
	if _, _, err := ks.ActiveSigner(); err == nil {
		return nil
	}
	priv, err := GenerateRSA(2048)
	if err != nil {
		return fmt.Errorf("keystore: bootstrap generate: %w", err)
	}
	pubPEM, err := EncodePublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return err
	}
	privPEM, err := EncodePrivateKeyPEM(priv)
	if err != nil {
		return err
	}
	_, err = ks.Register(ctx, pubPEM, privPEM, AlgRS256, UseSig)
	return err
}
