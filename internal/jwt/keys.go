package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

// Errores de parseo/validación de material de claves (uploads administrativos).
var (
	ErrKeyUploadInvalid = errors.New("key_upload_invalid")
)

const (
	// AlgRS256 es el único algoritmo soportado por el registro.
	AlgRS256 = "RS256"
	// UseSig es el único usage tag soportado.
	UseSig = "sig"

	// kidHexLen: el kid es el digest SHA-256 del SPKI de la clave pública,
	// truncado. Determinístico: re-registrar el mismo material da el mismo kid.
	kidHexLen = 16
)

// ComputeKID deriva el kid del material público (DER/PKIX).
func ComputeKID(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("jwt: marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])[:kidHexLen], nil
}

// GenerateRSA genera un par RSA nuevo (para bootstrap y CLI).
func GenerateRSA(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		bits = 2048
	}
	return rsa.GenerateKey(rand.Reader, bits)
}

// ParsePublicKeyPEM parsea una clave pública RSA en PEM (PKIX o PKCS#1).
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrKeyUploadInvalid)
	}
	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrKeyUploadInvalid)
		}
		return rsaPub, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	return nil, fmt.Errorf("%w: unparseable public key", ErrKeyUploadInvalid)
}

// ParsePrivateKeyPEM parsea una clave privada RSA en PEM (PKCS#8 o PKCS#1).
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrKeyUploadInvalid)
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrKeyUploadInvalid)
		}
		return rsaKey, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unparseable private key", ErrKeyUploadInvalid)
}

// EncodePublicKeyPEM serializa una clave pública a PEM/PKIX.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// EncodePrivateKeyPEM serializa una clave privada a PEM/PKCS#8.
func EncodePrivateKeyPEM(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
