/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manager

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/config"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/model"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/service"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/evaluator"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/hwid"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/infra/sqlite"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/keyring"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/signature"
)

const artifactPerm = 0o644

// Manager is the issuing application: it owns the license database, the
// key files and the local hardware identity.
type Manager struct {
	cfg      *config.Config
	fs       afero.Fs
	keys     *keyring.FileStore
	hardware hwid.Provider
	clock    evaluator.Clock
	logger   zerolog.Logger

	db          *sql.DB
	licenses    service.LicenseRepository
	signingKeys service.SigningKeyRepository
	signingKey  *keyring.KeyPair
}

type Option func(*Manager)

// WithFs sets the filesystem holding key files and artifacts.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithHardwareIdentity replaces the identity of the local machine.
func WithHardwareIdentity(p hwid.Provider) Option {
	return func(m *Manager) { m.hardware = p }
}

func WithClock(c evaluator.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func New(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		clock:  evaluator.SystemClock,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "manager").Logger()
	if m.hardware == nil {
		m.hardware = hwid.NewSystem(m.logger)
	}
	m.keys = keyring.NewFileStore(m.fs, cfg.Keys.File, cfg.Keys.SecretFile, m.logger)
	return m
}

// Init opens the configured license database and loads the signing key.
func (m *Manager) Init(ctx context.Context) error {
	return m.InitWithPath(ctx, m.cfg.Database.Path)
}

// InitWithPath opens the license database at dbPath, creating the schema if
// needed, and loads or creates the signing key pair.
func (m *Manager) InitWithPath(ctx context.Context, dbPath string) error {
	if dbPath != sqlite.MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sqlite.InitDB(ctx, dbPath)
	if err != nil {
		return err
	}
	m.db = db
	m.licenses = sqlite.NewLicenseRepository(db)
	m.signingKeys = sqlite.NewSigningKeyRepository(db)

	if err := m.EnsureSigningKey(ctx); err != nil {
		m.Close()
		return err
	}
	return nil
}

// Close closes the license database.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	err := sqlite.CloseDB(m.db)
	m.db = nil
	return err
}

// EnsureSigningKey loads the ECDSA key pair, creating it on first run, and
// records its public key in the database.
func (m *Manager) EnsureSigningKey(ctx context.Context) error {
	kp, created, err := m.keys.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	m.signingKey = kp
	if created {
		m.logger.Info().Str("path", m.keys.KeyPath()).Msg("generated a new signing key pair")
	}
	return m.registerSigningKey(ctx, kp)
}

// RotateSigningKey replaces the ECDSA key pair with a new one. Licenses
// signed with the old key still verify through their embedded public key.
func (m *Manager) RotateSigningKey(ctx context.Context) (string, error) {
	if m.db == nil {
		return "", ErrNotInitialized
	}
	kp, err := keyring.Generate(license.AlgorithmECDSAP256)
	if err != nil {
		return "", err
	}
	if err := m.keys.Save(kp); err != nil {
		return "", err
	}
	m.signingKey = kp
	if err := m.registerSigningKey(ctx, kp); err != nil {
		return "", err
	}
	return keyring.KeyID(kp.Public())
}

func (m *Manager) registerSigningKey(ctx context.Context, kp *keyring.KeyPair) error {
	coseKey, err := keyring.MarshalCOSE(kp.Public())
	if err != nil {
		return err
	}
	kid, err := keyring.Thumbprint(kp.Public())
	if err != nil {
		return err
	}
	_, err = m.signingKeys.Create(ctx, &model.SigningKey{
		KID:       kid,
		Algorithm: string(license.AlgorithmECDSAP256),
		PublicKey: coseKey,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("record signing key: %w", err)
	}
	return nil
}

// EnsureSecret loads the HMAC secret, creating it on first use.
func (m *Manager) EnsureSecret() (path string, created bool, err error) {
	_, created, err = m.keys.LoadOrCreateSecret()
	return m.keys.SecretPath(), created, err
}

// IssueRequest holds the operator's input for a new license. Empty optional
// fields take defaults: a generated key, one seat, today's date and the
// configured algorithm.
type IssueRequest struct {
	Key        string
	Customer   string
	Product    string
	Seats      int
	HardwareID string
	IssuedAt   string
	ExpiresAt  string
	Notes      string
	Algorithm  license.Algorithm
}

// Issue builds, validates and signs a license record and records it in the
// database. When only the database write fails the artifact is returned
// together with an error wrapping ErrPersistence.
func (m *Manager) Issue(ctx context.Context, req IssueRequest) (*license.Artifact, error) {
	if m.db == nil {
		return nil, ErrNotInitialized
	}

	rec, err := m.buildRecord(req)
	if err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	alg := req.Algorithm
	if alg == "" {
		alg = m.cfg.Algorithm()
	}
	key, err := m.keyFor(alg)
	if err != nil {
		return nil, err
	}
	a, err := signature.SignArtifact(rec, key)
	if err != nil {
		return nil, err
	}

	if _, err := m.licenses.InsertOrUpdate(ctx, rec, a.Signature, a.Algorithm); err != nil {
		m.logger.Warn().Err(err).Str("key", rec.Key).Msg("license signed but not recorded")
		return a, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	m.logger.Info().
		Str("key", rec.Key).
		Str("customer", rec.Customer).
		Str("product", rec.Product).
		Str("algorithm", string(a.Algorithm)).
		Msg("issued license")
	return a, nil
}

func (m *Manager) buildRecord(req IssueRequest) (license.Record, error) {
	key := license.NormalizeKey(req.Key)
	if key == "" {
		var err error
		if key, err = license.NewKey(m.cfg.Issue.KeyGroups, m.cfg.Issue.KeyGroupLength); err != nil {
			return license.Record{}, err
		}
	}
	seats := req.Seats
	if seats == 0 {
		seats = 1
	}
	issued := strings.TrimSpace(req.IssuedAt)
	if issued == "" {
		issued = license.FormatDate(license.Today(m.clock.Now()))
	}
	return license.Record{
		Version:    license.SchemaVersion,
		Key:        key,
		Customer:   strings.TrimSpace(req.Customer),
		Product:    strings.TrimSpace(req.Product),
		Seats:      seats,
		HardwareID: strings.TrimSpace(req.HardwareID),
		IssuedAt:   issued,
		ExpiresAt:  strings.TrimSpace(req.ExpiresAt),
		Notes:      strings.TrimSpace(req.Notes),
	}, nil
}

func (m *Manager) keyFor(alg license.Algorithm) (*keyring.KeyPair, error) {
	switch alg {
	case license.AlgorithmECDSAP256:
		if m.signingKey == nil {
			return nil, ErrNotInitialized
		}
		return m.signingKey, nil
	case license.AlgorithmHMACSHA256:
		kp, _, err := m.keys.LoadOrCreateSecret()
		if err != nil {
			return nil, fmt.Errorf("load HMAC secret: %w", err)
		}
		return kp, nil
	default:
		return nil, fmt.Errorf("%w: %q", license.ErrUnsupportedAlgorithm, alg)
	}
}

// WriteArtifact writes a to path, creating the parent directory.
func (m *Manager) WriteArtifact(path string, a *license.Artifact) error {
	data, err := a.Marshal()
	if err != nil {
		return err
	}
	if err := m.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, path, data, artifactPerm); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	m.logger.Debug().Str("path", path).Str("key", a.Record.Key).Msg("wrote license file")
	return nil
}

// ReadArtifact reads and parses the artifact file at path.
func (m *Manager) ReadArtifact(path string) (*license.Artifact, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return license.ParseArtifact(data)
}

// Verify evaluates a against this installation: its revocation list, its
// hardware identity, its HMAC secret and, for artifacts without an embedded
// public key, the signing keys it has recorded, the current one first.
// KnownIssuer is set when the verifying key is one of those recorded keys.
func (m *Manager) Verify(ctx context.Context, a *license.Artifact) (evaluator.Result, error) {
	if m.db == nil {
		return evaluator.Result{}, ErrNotInitialized
	}

	opts := []evaluator.Option{
		evaluator.WithClock(m.clock),
		evaluator.WithHardwareIdentity(m.hardware),
		evaluator.WithRevocations(m.licenses),
		evaluator.WithPinnedKeys(m.cfg.Verify.PinnedKeys...),
		evaluator.WithLogger(m.logger),
	}
	trusted, err := m.trustedKeys(ctx)
	if err != nil {
		return evaluator.Result{}, err
	}
	for _, key := range trusted {
		opts = append(opts, evaluator.WithTrustedKey(key))
	}
	secret, err := m.keys.LoadSecret()
	switch {
	case err == nil:
		opts = append(opts, evaluator.WithSecret(secret.Public()))
	case !errors.Is(err, os.ErrNotExist):
		return evaluator.Result{}, err
	}

	res, err := evaluator.New(opts...).Evaluate(ctx, a)
	if err != nil || res.KeyID == "" {
		return res, err
	}
	if res.KnownIssuer, err = m.knownKey(ctx, res.KeyID); err != nil {
		return evaluator.Result{}, err
	}
	return res, nil
}

// trustedKeys returns the current signing key followed by every other
// recorded key. Rows that no longer decode are skipped.
func (m *Manager) trustedKeys(ctx context.Context) ([]*keyring.PublicKey, error) {
	var keys []*keyring.PublicKey
	if m.signingKey != nil {
		keys = append(keys, m.signingKey.Public())
	}
	recorded, err := m.signingKeys.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signing keys: %w", err)
	}
	for _, row := range recorded {
		pub, err := keyring.UnmarshalCOSE(row.PublicKey)
		if err != nil {
			m.logger.Warn().Err(err).Hex("kid", row.KID).Msg("skipping unreadable signing key")
			continue
		}
		if len(keys) > 0 && keys[0].Equal(pub) {
			continue
		}
		keys = append(keys, pub)
	}
	return keys, nil
}

func (m *Manager) knownKey(ctx context.Context, keyID string) (bool, error) {
	kid, err := hex.DecodeString(keyID)
	if err != nil {
		return false, nil
	}
	row, err := m.signingKeys.FindByKID(ctx, kid)
	if err != nil {
		return false, fmt.Errorf("look up signing key: %w", err)
	}
	return row != nil, nil
}

// List returns every recorded license, newest first.
func (m *Manager) List(ctx context.Context) ([]*model.License, error) {
	if m.db == nil {
		return nil, ErrNotInitialized
	}
	return m.licenses.List(ctx)
}

// SetRevoked sets the revocation flag of the license with the given key.
// An unknown key yields domain.ErrNotFound.
func (m *Manager) SetRevoked(ctx context.Context, key string, revoked bool) error {
	if m.db == nil {
		return ErrNotInitialized
	}
	key = license.NormalizeKey(key)
	if err := m.licenses.SetRevoked(ctx, key, revoked); err != nil {
		return err
	}
	m.logger.Info().Str("key", key).Bool("revoked", revoked).Msg("updated revocation")
	return nil
}

// SigningKeys returns the public keys this installation has signed with.
func (m *Manager) SigningKeys(ctx context.Context) ([]*model.SigningKey, error) {
	if m.db == nil {
		return nil, ErrNotInitialized
	}
	return m.signingKeys.List(ctx)
}

// PublicKeyPEM returns the PEM public key of the signing key pair.
func (m *Manager) PublicKeyPEM() (string, error) {
	if m.signingKey == nil {
		return "", ErrNotInitialized
	}
	return keyring.PublicKeyPEM(m.signingKey.Public())
}

// KeyID returns the hex COSE_Key thumbprint of the signing key.
func (m *Manager) KeyID() (string, error) {
	if m.signingKey == nil {
		return "", ErrNotInitialized
	}
	return keyring.KeyID(m.signingKey.Public())
}

// COSEKey returns the signing public key as a CBOR COSE_Key.
func (m *Manager) COSEKey() ([]byte, error) {
	if m.signingKey == nil {
		return nil, ErrNotInitialized
	}
	return keyring.MarshalCOSE(m.signingKey.Public())
}

// HardwareID returns the fingerprint of the local machine.
func (m *Manager) HardwareID() string {
	return m.hardware.HardwareID()
}
