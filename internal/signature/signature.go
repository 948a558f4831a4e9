/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package signature signs and verifies the canonical encoding of a license
// record. The algorithm is always passed explicitly; it is never inferred
// from the key or the signature.
package signature

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/keyring"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

var (
	ErrUnsupportedAlgorithm = license.ErrUnsupportedAlgorithm
	ErrNoKey                = errors.New("no key material for algorithm")
)

var encoding = base64.RawURLEncoding.Strict()

// Sign returns the base64url (unpadded) signature of license.Encode(r).
func Sign(r license.Record, key *keyring.KeyPair, alg license.Algorithm) (string, error) {
	msg := license.Encode(r)

	switch alg {
	case license.AlgorithmHMACSHA256:
		if key == nil || key.Secret() == "" {
			return "", fmt.Errorf("sign %s: %w", alg, ErrNoKey)
		}
		return encoding.EncodeToString(mac(key.Secret(), msg)), nil
	case license.AlgorithmECDSAP256:
		if key == nil || key.ECDSA() == nil {
			return "", fmt.Errorf("sign %s: %w", alg, ErrNoKey)
		}
		digest := sha256.Sum256(msg)
		sig, err := ecdsa.SignASN1(rand.Reader, key.ECDSA(), digest[:])
		if err != nil {
			return "", fmt.Errorf("sign %s: %w", alg, err)
		}
		return encoding.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
}

// Verify reports whether sig is a valid signature of r under key. Malformed
// signatures and keys that do not fit alg yield false. An error is returned
// only for an unknown algorithm tag.
func Verify(r license.Record, sig string, key *keyring.PublicKey, alg license.Algorithm) (bool, error) {
	if !alg.Supported() {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
	if key == nil || key.Algorithm != alg {
		return false, nil
	}
	raw, ok := decode(sig)
	if !ok {
		return false, nil
	}
	msg := license.Encode(r)

	switch alg {
	case license.AlgorithmHMACSHA256:
		if key.Secret() == "" {
			return false, nil
		}
		return hmac.Equal(raw, mac(key.Secret(), msg)), nil
	default:
		if key.ECDSA() == nil {
			return false, nil
		}
		digest := sha256.Sum256(msg)
		return ecdsa.VerifyASN1(key.ECDSA(), digest[:], raw), nil
	}
}

// SignArtifact signs r with key under the key's own algorithm and builds the
// distributable artifact. ECDSA artifacts carry the PEM public key.
func SignArtifact(r license.Record, key *keyring.KeyPair) (*license.Artifact, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	sig, err := Sign(r, key, key.Algorithm)
	if err != nil {
		return nil, err
	}
	a := &license.Artifact{Record: r, Signature: sig, Algorithm: key.Algorithm}
	if key.Algorithm.Asymmetric() {
		if a.PublicKey, err = keyring.PublicKeyPEM(key.Public()); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func mac(secret keyring.Secret, msg []byte) []byte {
	h := hmac.New(sha256.New, secret.Bytes())
	h.Write(msg)
	return h.Sum(nil)
}

// decode accepts only the canonical unpadded base64url form, so that each
// signature has exactly one string representation. Strict decoding still
// skips CR and LF, hence the re-encoding check.
func decode(sig string) ([]byte, bool) {
	if sig == "" {
		return nil, false
	}
	raw, err := encoding.DecodeString(sig)
	if err != nil || encoding.EncodeToString(raw) != sig {
		return nil, false
	}
	return raw, true
}
