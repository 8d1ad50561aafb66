package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/shopauth/internal/audit"
	"github.com/dropDatabas3/shopauth/internal/domain/repository"
	dto "github.com/dropDatabas3/shopauth/internal/http/dto/admin"
	jwtx "github.com/dropDatabas3/shopauth/internal/jwt"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

// KeysService administra el registro de claves de firma.
type KeysService interface {
	List(ctx context.Context) []dto.KeyResponse
	Generate(ctx context.Context, actorID string, in dto.GenerateKeyRequest) (*dto.KeyResponse, error)
	Upload(ctx context.Context, actorID string, in dto.UploadKeyRequest) (*dto.KeyResponse, error)
	Deactivate(ctx context.Context, actorID, kid string) error
	Activate(ctx context.Context, actorID, kid string) error
}

// KeysDeps contiene las dependencias del keys service.
type KeysDeps struct {
	Keys  *jwtx.KeyStore
	Audit repository.AuditSink
}

type keysService struct {
	deps KeysDeps
}

// NewKeysService crea un nuevo KeysService.
func NewKeysService(deps KeysDeps) KeysService {
	return &keysService{deps: deps}
}

const (
	minRSABits     = 2048
	defaultRSABits = 2048
)

func toKeyResponse(k repository.SigningKey) dto.KeyResponse {
	return dto.KeyResponse{
		KID:       k.KID,
		Alg:       k.Alg,
		Use:       k.Use,
		Active:    k.Status == repository.KeyActive,
		Status:    string(k.Status),
		CreatedAt: k.CreatedAt,
	}
}

func (s *keysService) List(ctx context.Context) []dto.KeyResponse {
	keys := s.deps.Keys.List()
	out := make([]dto.KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyResponse(k))
	}
	return out
}

func (s *keysService) Generate(ctx context.Context, actorID string, in dto.GenerateKeyRequest) (*dto.KeyResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.keys"),
		logger.Op("Generate"),
	)

	bits := in.Bits
	if bits == 0 {
		bits = defaultRSABits
	}
	if bits < minRSABits {
		return nil, fmt.Errorf("%w: rsa keys below %d bits are not accepted", jwtx.ErrKeyUploadInvalid, minRSABits)
	}

	priv, err := jwtx.GenerateRSA(bits)
	if err != nil {
		log.Error("rsa generation failed", logger.Err(err))
		return nil, fmt.Errorf("generate rsa: %w", err)
	}

	pubPEM, err := jwtx.EncodePublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode public key: %w", err)
	}
	privPEM, err := jwtx.EncodePrivateKeyPEM(priv)
	if err != nil {
		return nil, fmt.Errorf("encode private key: %w", err)
	}

	kid, err := s.deps.Keys.Register(ctx, pubPEM, privPEM, jwtx.AlgRS256, jwtx.UseSig)
	if err != nil {
		log.Error("key registration failed", logger.Err(err))
		return nil, fmt.Errorf("register key: %w", err)
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:  "keys.generate",
		ActorID: actorID,
		KID:     kid,
		Detail:  map[string]any{"bits": bits},
	})
	log.Info("signing key generated", logger.KID(kid))

	k, err := s.deps.Keys.Get(kid)
	if err != nil {
		return nil, err
	}
	resp := toKeyResponse(*k)
	return &resp, nil
}

func (s *keysService) Upload(ctx context.Context, actorID string, in dto.UploadKeyRequest) (*dto.KeyResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.keys"),
		logger.Op("Upload"),
	)

	if strings.TrimSpace(in.PublicPEM) == "" {
		return nil, fmt.Errorf("%w: public_pem is required", jwtx.ErrKeyUploadInvalid)
	}

	kid, err := s.deps.Keys.Register(ctx, []byte(in.PublicPEM), []byte(in.PrivatePEM), jwtx.AlgRS256, jwtx.UseSig)
	if err != nil {
		log.Warn("key upload rejected", logger.Err(err))
		return nil, err
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:  "keys.upload",
		ActorID: actorID,
		KID:     kid,
		Detail:  map[string]any{"has_private": strings.TrimSpace(in.PrivatePEM) != ""},
	})
	log.Info("signing key uploaded", logger.KID(kid))

	k, err := s.deps.Keys.Get(kid)
	if err != nil {
		return nil, err
	}
	resp := toKeyResponse(*k)
	return &resp, nil
}

func (s *keysService) Deactivate(ctx context.Context, actorID, kid string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.keys"),
		logger.Op("Deactivate"),
	)

	if err := s.deps.Keys.Deactivate(ctx, kid); err != nil {
		return err
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:  "keys.deactivate",
		ActorID: actorID,
		KID:     kid,
	})
	log.Info("signing key deactivated", logger.KID(kid))
	return nil
}

func (s *keysService) Activate(ctx context.Context, actorID, kid string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.keys"),
		logger.Op("Activate"),
	)

	if err := s.deps.Keys.Activate(ctx, kid); err != nil {
		return err
	}

	audit.Record(ctx, s.deps.Audit, repository.AuditEvent{
		Action:  "keys.activate",
		ActorID: actorID,
		KID:     kid,
	})
	log.Info("signing key activated", logger.KID(kid))
	return nil
}
