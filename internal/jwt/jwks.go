package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/dropDatabas3/shopauth/internal/domain/repository"
)

// JWK es una clave pública RSA en formato JSON Web Key.
type JWK struct {
	Kty string `json:"kty"` // "RSA"
	Kid string `json:"kid"`
	Use string `json:"use"` // "sig"
	Alg string `json:"alg"` // "RS256"
	N   string `json:"n"`   // base64url(modulus)
	E   string `json:"e"`   // base64url(exponent)
}

// JWKS es el documento de descubrimiento de claves públicas.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// BuildJWKS construye el JWKS JSON a partir de claves activas.
// Sin cache: los verificadores externos dependen de que refleje el registro al
// instante, así que se renderiza sobre el snapshot vivo en cada lectura.
func BuildJWKS(keys []repository.SigningKey) ([]byte, error) {
	doc := JWKS{Keys: make([]JWK, 0, len(keys))}
	for _, k := range keys {
		pub, err := ParsePublicKeyPEM(k.PublicPEM)
		if err != nil {
			// Material corrupto no debe tumbar el endpoint de descubrimiento.
			continue
		}
		doc.Keys = append(doc.Keys, JWK{
			Kty: "RSA",
			Kid: k.KID,
			Use: k.Use,
			Alg: k.Alg,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(doc)
}

// JWKSJSON renderiza las claves activas del registro como JWKS.
func (ks *KeyStore) JWKSJSON() ([]byte, error) {
	return BuildJWKS(ks.ListActive())
}
