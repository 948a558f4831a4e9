/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keyring

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"unicode/utf8"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

const (
	pemPrivateKey   = "PRIVATE KEY"
	pemECPrivateKey = "EC PRIVATE KEY"
	pemPublicKey    = "PUBLIC KEY"
)

// ExportPrivate serializes the private material: PKCS#8 PEM for ECDSA-P256,
// the secret string for HMAC-SHA256.
func ExportPrivate(k *KeyPair) ([]byte, error) {
	switch {
	case k == nil:
		return nil, ErrNoPrivateKey
	case k.private != nil:
		der, err := x509.MarshalPKCS8PrivateKey(k.private)
		if err != nil {
			return nil, fmt.Errorf("marshal private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
	case k.secret != "":
		return []byte(k.secret), nil
	default:
		return nil, ErrNoPrivateKey
	}
}

// ExportPublic serializes the verification material: SubjectPublicKeyInfo
// PEM for ECDSA-P256, the secret string for HMAC-SHA256.
func ExportPublic(p *PublicKey) ([]byte, error) {
	switch {
	case p == nil:
		return nil, fmt.Errorf("%w: nil public key", ErrKeyFormat)
	case p.ecdsa != nil:
		der, err := x509.MarshalPKIXPublicKey(p.ecdsa)
		if err != nil {
			return nil, fmt.Errorf("marshal public key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
	case p.secret != "":
		return []byte(p.secret), nil
	default:
		return nil, fmt.Errorf("%w: empty public key", ErrKeyFormat)
	}
}

// ImportPrivate is the inverse of ExportPrivate. ECDSA accepts PKCS#8 and
// SEC 1 ("EC PRIVATE KEY") PEM. Anything that is not a P-256 key for the
// stated algorithm fails with ErrKeyFormat.
func ImportPrivate(alg license.Algorithm, blob []byte) (*KeyPair, error) {
	switch alg {
	case license.AlgorithmECDSAP256:
		block, err := decodePEM(blob)
		if err != nil {
			return nil, err
		}
		var key any
		switch block.Type {
		case pemPrivateKey:
			key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		case pemECPrivateKey:
			key, err = x509.ParseECPrivateKey(block.Bytes)
		default:
			return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyFormat, block.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		priv, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an ECDSA key", ErrKeyFormat, key)
		}
		return FromECDSA(priv)
	case license.AlgorithmHMACSHA256:
		s, err := checkSecret(blob)
		if err != nil {
			return nil, err
		}
		return &KeyPair{Algorithm: alg, secret: s}, nil
	default:
		return nil, fmt.Errorf("%w: %q", license.ErrUnsupportedAlgorithm, string(alg))
	}
}

// ImportPublic is the inverse of ExportPublic.
func ImportPublic(alg license.Algorithm, blob []byte) (*PublicKey, error) {
	switch alg {
	case license.AlgorithmECDSAP256:
		block, err := decodePEM(blob)
		if err != nil {
			return nil, err
		}
		if block.Type != pemPublicKey {
			return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyFormat, block.Type)
		}
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		pub, ok := key.(*ecdsa.PublicKey)
		if !ok || pub.Curve != elliptic.P256() {
			return nil, fmt.Errorf("%w: not a P-256 public key", ErrKeyFormat)
		}
		return &PublicKey{Algorithm: alg, ecdsa: pub}, nil
	case license.AlgorithmHMACSHA256:
		s, err := checkSecret(blob)
		if err != nil {
			return nil, err
		}
		return &PublicKey{Algorithm: alg, secret: s}, nil
	default:
		return nil, fmt.Errorf("%w: %q", license.ErrUnsupportedAlgorithm, string(alg))
	}
}

// PublicKeyPEM is ExportPublic as a string, the form embedded in artifacts.
func PublicKeyPEM(p *PublicKey) (string, error) {
	b, err := ExportPublic(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePEM(blob []byte) (*pem.Block, error) {
	block, rest := pem.Decode(blob)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, fmt.Errorf("%w: trailing data after PEM block", ErrKeyFormat)
	}
	return block, nil
}

func checkSecret(b []byte) (Secret, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("%w: empty secret", ErrKeyFormat)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: secret is not valid UTF-8", ErrKeyFormat)
	}
	return Secret(b), nil
}
