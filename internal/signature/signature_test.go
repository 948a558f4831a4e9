/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/keyring"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

var acme = license.Record{
	Version:   1,
	Key:       "AAAA-BBBB-CCCC-DDDD",
	Customer:  "Acme",
	Product:   "Widget",
	Seats:     5,
	IssuedAt:  "2024-01-01",
	ExpiresAt: "2025-01-01",
}

const acmeHMAC = "iyqS7eKjNbhFmAMEgrh9kpOFspKCLfNpkLkw7hplMyg"

func mustSecret(t *testing.T, s string) *keyring.KeyPair {
	t.Helper()
	kp, err := keyring.FromSecret(s)
	require.NoError(t, err)
	return kp
}

func mustECDSA(t *testing.T) *keyring.KeyPair {
	t.Helper()
	kp, err := keyring.Generate(license.AlgorithmECDSAP256)
	require.NoError(t, err)
	return kp
}

func TestSign_HMACGolden(t *testing.T) {
	sig, err := Sign(acme, mustSecret(t, "s3cr3t"), license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	assert.Equal(t, acmeHMAC, sig)

	ok, err := Verify(acme, acmeHMAC, mustSecret(t, "s3cr3t").Public(), license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(acme, acmeHMAC, mustSecret(t, "wrong").Public(), license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	assert.False(t, ok)

	sig, err = Sign(acme, mustSecret(t, "wrong"), license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	assert.Equal(t, "eHib-xGIHqa4PkQLxnzhbwUEBHwmWTR9mK8C39xE9LA", sig)
}

func TestVerify_NonCanonicalSignature(t *testing.T) {
	pub := mustSecret(t, "s3cr3t").Public()
	base := acmeHMAC[:len(acmeHMAC)-1]

	// the last character carries two unused bits
	for _, sig := range []string{
		base + "h",
		base + "i",
		base + "j",
		acmeHMAC + "=",
		acmeHMAC + "==",
		acmeHMAC + "\n",
		acmeHMAC[:20] + "\r\n" + acmeHMAC[20:],
		" " + acmeHMAC,
	} {
		ok, err := Verify(acme, sig, pub, license.AlgorithmHMACSHA256)
		require.NoError(t, err)
		assert.False(t, ok, "%q", sig)
	}
}

func TestRoundTrip(t *testing.T) {
	records := []license.Record{acme}
	r := acme
	r.ExpiresAt = ""
	r.HardwareID = "9EC37DB276FF71831C63913D"
	r.Notes = "Zeile 1\n€ 😀"
	records = append(records, r)

	keys := []*keyring.KeyPair{mustSecret(t, "s3cr3t"), mustECDSA(t)}
	for _, key := range keys {
		for _, rec := range records {
			sig, err := Sign(rec, key, key.Algorithm)
			require.NoError(t, err)
			assert.NotContains(t, sig, "=")

			ok, err := Verify(rec, sig, key.Public(), key.Algorithm)
			require.NoError(t, err)
			assert.True(t, ok, "%s %q", key.Algorithm, rec.Notes)
		}
	}
}

func TestVerify_ECDSAOtherKey(t *testing.T) {
	key := mustECDSA(t)
	sig, err := Sign(acme, key, license.AlgorithmECDSAP256)
	require.NoError(t, err)

	ok, err := Verify(acme, sig, mustECDSA(t).Public(), license.AlgorithmECDSAP256)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_TamperedSignature(t *testing.T) {
	for _, key := range []*keyring.KeyPair{mustSecret(t, "s3cr3t"), mustECDSA(t)} {
		sig, err := Sign(acme, key, key.Algorithm)
		require.NoError(t, err)
		raw, err := base64.RawURLEncoding.DecodeString(sig)
		require.NoError(t, err)

		for i := range raw {
			flipped := append([]byte(nil), raw...)
			flipped[i] ^= 0x01
			ok, err := Verify(acme, base64.RawURLEncoding.EncodeToString(flipped), key.Public(), key.Algorithm)
			require.NoError(t, err)
			assert.False(t, ok, "%s byte %d", key.Algorithm, i)
		}

		// every other character at every position of the string
		for i := range sig {
			for _, c := range urlAlphabet {
				if byte(c) == sig[i] {
					continue
				}
				altered := sig[:i] + string(c) + sig[i+1:]
				ok, err := Verify(acme, altered, key.Public(), key.Algorithm)
				require.NoError(t, err)
				if ok {
					t.Fatalf("%s: altered signature %q verified", key.Algorithm, altered)
				}
			}
		}
	}
}

const urlAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestVerify_TamperedRecord(t *testing.T) {
	mutations := map[string]func(*license.Record){
		"version":    func(r *license.Record) { r.Version = 2 },
		"key":        func(r *license.Record) { r.Key = "AAAA-BBBB-CCCC-DDDE" },
		"customer":   func(r *license.Record) { r.Customer = "Evil" },
		"product":    func(r *license.Record) { r.Product = "Widget Pro" },
		"seats":      func(r *license.Record) { r.Seats = 500 },
		"hwid":       func(r *license.Record) { r.HardwareID = "XYZ999" },
		"issued_at":  func(r *license.Record) { r.IssuedAt = "2023-01-01" },
		"expires_at": func(r *license.Record) { r.ExpiresAt = "2099-01-01" },
		"perpetual":  func(r *license.Record) { r.ExpiresAt = "" },
		"notes":      func(r *license.Record) { r.Notes = "x" },
	}

	for _, key := range []*keyring.KeyPair{mustSecret(t, "s3cr3t"), mustECDSA(t)} {
		sig, err := Sign(acme, key, key.Algorithm)
		require.NoError(t, err)
		for name, mutate := range mutations {
			r := acme
			mutate(&r)
			ok, err := Verify(r, sig, key.Public(), key.Algorithm)
			require.NoError(t, err)
			assert.False(t, ok, "%s %s", key.Algorithm, name)
		}
	}
}

func TestVerify_AlgorithmConfusion(t *testing.T) {
	secret := mustSecret(t, "s3cr3t")
	ecKey := mustECDSA(t)

	hmacSig, err := Sign(acme, secret, license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	ecSig, err := Sign(acme, ecKey, license.AlgorithmECDSAP256)
	require.NoError(t, err)

	// HMAC signature checked as ECDSA, with any key
	for _, pub := range []*keyring.PublicKey{ecKey.Public(), mustECDSA(t).Public(), secret.Public()} {
		ok, err := Verify(acme, hmacSig, pub, license.AlgorithmECDSAP256)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// ECDSA signature checked as HMAC, with any key
	for _, pub := range []*keyring.PublicKey{secret.Public(), ecKey.Public()} {
		ok, err := Verify(acme, ecSig, pub, license.AlgorithmHMACSHA256)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// the public key PEM used as an HMAC secret
	pemPub, err := keyring.PublicKeyPEM(ecKey.Public())
	require.NoError(t, err)
	h := hmac.New(sha256.New, []byte(pemPub))
	h.Write(license.Encode(acme))
	forged := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	ok, err := Verify(acme, forged, ecKey.Public(), license.AlgorithmHMACSHA256)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedInput(t *testing.T) {
	pub := mustSecret(t, "s3cr3t").Public()
	ecPub := mustECDSA(t).Public()

	for _, sig := range []string{"", "=", "!!!", "a", "not base64 at all", "iyqS7eKjNbhFmAMEgrh9kpOFspKCLfNpkLkw7hplMy", "+/+/"} {
		ok, err := Verify(acme, sig, pub, license.AlgorithmHMACSHA256)
		assert.NoError(t, err)
		assert.False(t, ok, sig)

		ok, err = Verify(acme, sig, ecPub, license.AlgorithmECDSAP256)
		assert.NoError(t, err)
		assert.False(t, ok, sig)
	}

	ok, err := Verify(acme, acmeHMAC, nil, license.AlgorithmHMACSHA256)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := Sign(acme, mustSecret(t, "s3cr3t"), "none")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	ok, err := Verify(acme, acmeHMAC, mustSecret(t, "s3cr3t").Public(), "HS256")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	assert.False(t, ok)
}

func TestSign_MissingKey(t *testing.T) {
	_, err := Sign(acme, mustECDSA(t), license.AlgorithmHMACSHA256)
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = Sign(acme, mustSecret(t, "s3cr3t"), license.AlgorithmECDSAP256)
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = Sign(acme, nil, license.AlgorithmECDSAP256)
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestSignArtifact(t *testing.T) {
	a, err := SignArtifact(acme, mustSecret(t, "s3cr3t"))
	require.NoError(t, err)
	assert.Equal(t, acmeHMAC, a.Signature)
	assert.Equal(t, license.AlgorithmHMACSHA256, a.Algorithm)
	assert.Empty(t, a.PublicKey)

	key := mustECDSA(t)
	a, err = SignArtifact(acme, key)
	require.NoError(t, err)
	assert.Equal(t, license.AlgorithmECDSAP256, a.Algorithm)
	pub, err := keyring.ImportPublic(license.AlgorithmECDSAP256, []byte(a.PublicKey))
	require.NoError(t, err)
	ok, err := Verify(a.Record, a.Signature, pub, a.Algorithm)
	require.NoError(t, err)
	assert.True(t, ok)
}
