/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package evaluator computes the current status of a license artifact.
//
// Evaluation is re-run from scratch on every call and never mutates the
// artifact or the revocation state. States are checked in priority order,
// first match wins:
//
//	SignatureInvalid > Revoked > HardwareMismatch > Expired > Valid
//
// Trust model: an ECDSA artifact that embeds its own public key proves only
// that the holder of that key pair signed the record, not that a known
// issuer did. Anyone can self-sign an artifact with a fresh key pair. Use
// WithPinnedKeys to accept only known key ids.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/hwid"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/keyring"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/signature"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/util"
)

var (
	ErrNoVerificationKey = errors.New("no verification key for algorithm")
	ErrNilArtifact       = errors.New("nil artifact")
)

// Status is the outcome of an evaluation. The zero value is
// StatusSignatureInvalid so that an unset status never reads as valid.
type Status int

const (
	StatusSignatureInvalid Status = iota
	StatusRevoked
	StatusHardwareMismatch
	StatusExpired
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusExpired:
		return "Expired"
	case StatusRevoked:
		return "Revoked"
	case StatusHardwareMismatch:
		return "HardwareMismatch"
	case StatusSignatureInvalid:
		return "SignatureInvalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RevocationLookup reports the revocation flag of a license key. Absent keys
// are not revoked.
type RevocationLookup interface {
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// RevocationFunc adapts a function to RevocationLookup.
type RevocationFunc func(ctx context.Context, key string) (bool, error)

func (f RevocationFunc) IsRevoked(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

// Result describes one evaluation. Record, KeyID and EmbeddedKey are empty
// when the signature did not verify.
type Result struct {
	Status Status
	Record license.Record
	// KeyID of the ECDSA key that verified the signature.
	KeyID string
	// EmbeddedKey is set when that key came from the artifact itself.
	EmbeddedKey bool
	// KnownIssuer is set when the verifying key is one the issuer has
	// recorded. Evaluate leaves it to callers that keep such a record.
	KnownIssuer bool
	// HardwareID of the current machine, filled when the record is bound.
	HardwareID string
}

func (r Result) Valid() bool { return r.Status == StatusValid }

type Evaluator struct {
	clock       Clock
	hardware    hwid.Provider
	revocations RevocationLookup
	trustedKeys []*keyring.PublicKey
	secret      *keyring.PublicKey
	pinned      util.Set[string]
	logger      zerolog.Logger
}

type Option func(*Evaluator)

// WithClock sets the source of the current date. Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

// WithHardwareIdentity sets the identity bound records are compared with.
// Without one, every bound record is a hardware mismatch.
func WithHardwareIdentity(p hwid.Provider) Option {
	return func(e *Evaluator) { e.hardware = p }
}

// WithRevocations sets the revocation lookup. Without one nothing is revoked.
func WithRevocations(r RevocationLookup) Option {
	return func(e *Evaluator) { e.revocations = r }
}

// WithTrustedKey adds an ECDSA public key for artifacts that do not embed
// one. Keys are tried in the order they were added.
func WithTrustedKey(p *keyring.PublicKey) Option {
	return func(e *Evaluator) {
		if p != nil {
			e.trustedKeys = append(e.trustedKeys, p)
		}
	}
}

// WithSecret sets the shared secret for HMAC-SHA256 artifacts.
func WithSecret(s *keyring.PublicKey) Option {
	return func(e *Evaluator) { e.secret = s }
}

// WithPinnedKeys restricts ECDSA verification to the given key ids (hex
// COSE_Key thumbprints). An artifact verified by any other key, embedded or
// not, is SignatureInvalid.
func WithPinnedKeys(kids ...string) Option {
	return func(e *Evaluator) {
		for _, kid := range kids {
			if kid = strings.ToLower(strings.TrimSpace(kid)); kid != "" {
				e.pinned.Add(kid)
			}
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock:  SystemClock,
		pinned: util.NewSet[string](),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "evaluator").Logger()
	return e
}

// Evaluate verifies a and computes its status. A failed verification is a
// status, not an error. Errors are returned for an unsupported algorithm tag
// (with StatusSignatureInvalid), for missing verification key material and
// for a failing revocation lookup; in the last case the status must not be
// relied on.
//
// A signed expires_at that is not a YYYY-MM-DD date evaluates to
// StatusExpired, never to StatusValid.
func (e *Evaluator) Evaluate(ctx context.Context, a *license.Artifact) (Result, error) {
	if a == nil {
		return Result{}, ErrNilArtifact
	}

	keys, embedded, err := e.verificationKeys(a)
	if err != nil || len(keys) == 0 {
		return e.invalid(a, err)
	}

	var kid string
	verified := false
	for _, key := range keys {
		if kid, verified, err = e.verifyWith(a, key); err != nil {
			return e.invalid(a, err)
		}
		if verified {
			break
		}
	}
	if !verified {
		return e.invalid(a, nil)
	}

	rec := a.Record
	res := Result{Record: rec, KeyID: kid, EmbeddedKey: embedded}
	res.Status, err = e.status(ctx, rec, &res)
	if err != nil {
		return Result{}, err
	}

	e.logger.Info().
		Str("key", rec.Key).
		Stringer("status", res.Status).
		Str("algorithm", string(a.Algorithm)).
		Msg("evaluated license")
	return res, nil
}

func (e *Evaluator) status(ctx context.Context, rec license.Record, res *Result) (Status, error) {
	if e.revocations != nil {
		revoked, err := e.revocations.IsRevoked(ctx, rec.Key)
		if err != nil {
			return StatusSignatureInvalid, fmt.Errorf("revocation lookup for %s: %w", rec.Key, err)
		}
		if revoked {
			return StatusRevoked, nil
		}
	}

	if rec.Bound() {
		current := ""
		if e.hardware != nil {
			current = e.hardware.HardwareID()
		}
		res.HardwareID = current
		if rec.HardwareID != current {
			return StatusHardwareMismatch, nil
		}
	}

	if !rec.Perpetual() {
		expires, err := license.ParseDate(rec.ExpiresAt)
		// a signed but unreadable expiry date fails closed
		if err != nil || expires.Before(license.Today(e.clock.Now())) {
			return StatusExpired, nil
		}
	}
	return StatusValid, nil
}

// verifyWith checks the signature of a under key. kid is set for ECDSA keys;
// a key outside the pinned set never verifies.
func (e *Evaluator) verifyWith(a *license.Artifact, key *keyring.PublicKey) (kid string, ok bool, err error) {
	if key.ECDSA() != nil {
		if kid, err = keyring.KeyID(key); err != nil {
			return "", false, nil
		}
		if e.pinned.Len() > 0 && !e.pinned.Has(kid) {
			e.logger.Warn().Str("kid", kid).Strs("pinned", util.Sorted(e.pinned)).Msg("signing key is not pinned")
			return kid, false, nil
		}
	}
	ok, err = signature.Verify(a.Record, a.Signature, key, a.Algorithm)
	return kid, ok, err
}

// verificationKeys selects the candidate keys for a. No keys without error
// means the artifact's own key material is unusable.
func (e *Evaluator) verificationKeys(a *license.Artifact) (keys []*keyring.PublicKey, embedded bool, err error) {
	alg, err := license.ParseAlgorithm(string(a.Algorithm))
	if err != nil {
		return nil, false, err
	}

	switch alg {
	case license.AlgorithmHMACSHA256:
		if e.secret == nil {
			return nil, false, fmt.Errorf("%w: %s", ErrNoVerificationKey, alg)
		}
		return []*keyring.PublicKey{e.secret}, false, nil
	default:
		if a.PublicKey != "" {
			pub, err := keyring.ImportPublic(alg, []byte(a.PublicKey))
			if err != nil {
				e.logger.Debug().Err(err).Msg("embedded public key rejected")
				return nil, true, nil
			}
			return []*keyring.PublicKey{pub}, true, nil
		}
		if len(e.trustedKeys) == 0 {
			return nil, false, fmt.Errorf("%w: %s", ErrNoVerificationKey, alg)
		}
		return e.trustedKeys, false, nil
	}
}

func (e *Evaluator) invalid(a *license.Artifact, err error) (Result, error) {
	e.logger.Info().
		Str("algorithm", string(a.Algorithm)).
		Stringer("status", StatusSignatureInvalid).
		Msg("evaluated license")
	return Result{Status: StatusSignatureInvalid}, err
}
