/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keyring

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

var (
	ErrKeyFormat    = errors.New("key format error")
	ErrNoPrivateKey = errors.New("no private key material")
)

// SecretSize is the number of random bytes behind a generated HMAC secret.
const SecretSize = 32

// Secret is a shared HMAC secret. It prints redacted so it cannot end up in
// log lines or error messages by accident.
type Secret string

func (Secret) String() string   { return "[redacted]" }
func (Secret) GoString() string { return "keyring.Secret([redacted])" }

// Bytes returns the HMAC key: the UTF-8 bytes of the secret string.
func (s Secret) Bytes() []byte { return []byte(s) }

// KeyPair is the signing material owned by the issuing instance. For
// HMAC-SHA256 the pair degenerates to one shared secret.
type KeyPair struct {
	Algorithm license.Algorithm

	private *ecdsa.PrivateKey
	secret  Secret
}

// PublicKey is the verification half of a KeyPair. For HMAC-SHA256 it is
// the shared secret itself.
type PublicKey struct {
	Algorithm license.Algorithm

	ecdsa  *ecdsa.PublicKey
	secret Secret
}

// Generate creates fresh key material for alg from crypto/rand.
func Generate(alg license.Algorithm) (*KeyPair, error) {
	switch alg {
	case license.AlgorithmECDSAP256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate P-256 key: %w", err)
		}
		return &KeyPair{Algorithm: alg, private: priv}, nil
	case license.AlgorithmHMACSHA256:
		buf := make([]byte, SecretSize)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		return &KeyPair{Algorithm: alg, secret: Secret(base64.RawURLEncoding.EncodeToString(buf))}, nil
	default:
		return nil, fmt.Errorf("%w: %q", license.ErrUnsupportedAlgorithm, string(alg))
	}
}

// FromECDSA wraps an existing P-256 private key.
func FromECDSA(priv *ecdsa.PrivateKey) (*KeyPair, error) {
	if priv == nil || priv.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: not a P-256 private key", ErrKeyFormat)
	}
	return &KeyPair{Algorithm: license.AlgorithmECDSAP256, private: priv}, nil
}

// FromSecret wraps a shared HMAC secret. The secret is used byte for byte.
func FromSecret(secret string) (*KeyPair, error) {
	s, err := checkSecret([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &KeyPair{Algorithm: license.AlgorithmHMACSHA256, secret: s}, nil
}

// PublicFromECDSA wraps a P-256 public key for verification.
func PublicFromECDSA(pub *ecdsa.PublicKey) (*PublicKey, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: not a P-256 public key", ErrKeyFormat)
	}
	return &PublicKey{Algorithm: license.AlgorithmECDSAP256, ecdsa: pub}, nil
}

// ECDSA returns the private key, or nil for a secret.
func (k *KeyPair) ECDSA() *ecdsa.PrivateKey { return k.private }

// Secret returns the shared secret, or "" for an ECDSA pair.
func (k *KeyPair) Secret() Secret { return k.secret }

// Public returns the verification half of k.
func (k *KeyPair) Public() *PublicKey {
	switch {
	case k.private != nil:
		return &PublicKey{Algorithm: k.Algorithm, ecdsa: &k.private.PublicKey}
	default:
		return &PublicKey{Algorithm: k.Algorithm, secret: k.secret}
	}
}

// ECDSA returns the public key, or nil for a secret.
func (p *PublicKey) ECDSA() *ecdsa.PublicKey { return p.ecdsa }

// Secret returns the shared secret, or "" for an ECDSA key.
func (p *PublicKey) Secret() Secret { return p.secret }

// Equal reports whether p and other hold the same verification material.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if p == nil || other == nil || p.Algorithm != other.Algorithm {
		return false
	}
	if p.ecdsa != nil {
		return other.ecdsa != nil && p.ecdsa.Equal(other.ecdsa)
	}
	return other.ecdsa == nil && p.secret == other.secret
}
