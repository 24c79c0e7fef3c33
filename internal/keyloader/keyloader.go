// Package keyloader owns the station's RSA signing keypair. The keypair is a
// process-wide singleton: it is loaded once at startup and swapping it
// requires a process restart (spec.md §9 "Global mutable state").
package keyloader

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const keyBits = 2048

// KeyPair holds the station's signing keypair.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// FromEnv loads a keypair from PEM-encoded PKCS8 private key / SPKI public
// key material, as supplied via the STATION_PRIVATE_KEY / STATION_PUBLIC_KEY
// environment contract (spec.md §6).
func FromEnv(privatePEM, publicPEM string) (*KeyPair, error) {
	priv, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse STATION_PRIVATE_KEY: %w", err)
	}
	pub, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse STATION_PUBLIC_KEY: %w", err)
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}

// Generate creates a fresh ephemeral RSA-2048 keypair. Intended for local
// development (`cmd/station --memory`) and the `gen-keypair` CLI command;
// production deployments must supply STATION_PRIVATE_KEY/STATION_PUBLIC_KEY.
func Generate() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &KeyPair{Private: key, Public: &key.PublicKey}, nil
}

// PrivatePEM encodes the private key as PKCS8 PEM.
func (kp *KeyPair) PrivatePEM() (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(kp.Private)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// PublicPEM encodes the public key as SPKI PEM.
func (kp *KeyPair) PublicPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(kp.Public)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse PKCS8 private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse SPKI public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaKey, nil
}
