/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

const (
	filePerm = 0o600
	dirPerm  = 0o700
)

// keyFile is the on-disk layout of generator_keys.json.
type keyFile struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// FileStore persists the issuing instance's ECDSA key pair and HMAC secret.
// Keys are created on first use and never rotated implicitly: a file that
// exists but does not parse is an error, not a reason to regenerate.
type FileStore struct {
	fs         afero.Fs
	keyPath    string
	secretPath string
	logger     zerolog.Logger
}

func NewFileStore(fs afero.Fs, keyPath, secretPath string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		fs:         fs,
		keyPath:    keyPath,
		secretPath: secretPath,
		logger:     logger.With().Str("component", "keystore").Logger(),
	}
}

func (s *FileStore) KeyPath() string    { return s.keyPath }
func (s *FileStore) SecretPath() string { return s.secretPath }

// Load reads the ECDSA key pair. A missing file wraps os.ErrNotExist.
func (s *FileStore) Load() (*KeyPair, error) {
	data, err := afero.ReadFile(s.fs, s.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyFormat, s.keyPath, err)
	}
	kp, err := ImportPrivate(license.AlgorithmECDSAP256, []byte(kf.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%s: private key: %w", s.keyPath, err)
	}
	if kf.PublicKey != "" {
		pub, err := ImportPublic(license.AlgorithmECDSAP256, []byte(kf.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("%s: public key: %w", s.keyPath, err)
		}
		if !pub.Equal(kp.Public()) {
			return nil, fmt.Errorf("%w: %s: public key does not match private key", ErrKeyFormat, s.keyPath)
		}
	}
	return kp, nil
}

// Save writes the ECDSA key pair, replacing any existing file.
func (s *FileStore) Save(kp *KeyPair) error {
	if kp == nil || kp.ECDSA() == nil {
		return fmt.Errorf("save key file: %w", ErrNoPrivateKey)
	}
	priv, err := ExportPrivate(kp)
	if err != nil {
		return err
	}
	pub, err := ExportPublic(kp.Public())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(keyFile{PrivateKey: string(priv), PublicKey: string(pub)}, "", "    ")
	if err != nil {
		return err
	}
	return s.write(s.keyPath, data)
}

// LoadOrCreate loads the ECDSA key pair, generating and saving one on first
// run. created reports whether a new pair was generated.
func (s *FileStore) LoadOrCreate() (kp *KeyPair, created bool, err error) {
	exists, err := afero.Exists(s.fs, s.keyPath)
	if err != nil {
		return nil, false, err
	}
	if exists {
		kp, err = s.Load()
		if err != nil {
			return nil, false, err
		}
		s.logKey("loaded signing key pair", kp)
		return kp, false, nil
	}

	kp, err = Generate(license.AlgorithmECDSAP256)
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(kp); err != nil {
		return nil, false, err
	}
	s.logKey("created signing key pair", kp)
	return kp, true, nil
}

// LoadSecret reads the HMAC secret. A missing file wraps os.ErrNotExist.
func (s *FileStore) LoadSecret() (*KeyPair, error) {
	data, err := afero.ReadFile(s.fs, s.secretPath)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	kp, err := ImportPrivate(license.AlgorithmHMACSHA256, []byte(strings.TrimRight(string(data), "\r\n")))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.secretPath, err)
	}
	return kp, nil
}

// SaveSecret writes the HMAC secret, replacing any existing file.
func (s *FileStore) SaveSecret(kp *KeyPair) error {
	if kp == nil || kp.Secret() == "" {
		return fmt.Errorf("save secret file: %w", ErrNoPrivateKey)
	}
	return s.write(s.secretPath, append(kp.Secret().Bytes(), '\n'))
}

// LoadOrCreateSecret loads the HMAC secret, generating and saving one on
// first run.
func (s *FileStore) LoadOrCreateSecret() (kp *KeyPair, created bool, err error) {
	kp, err = s.LoadSecret()
	if err == nil {
		s.logger.Debug().Str("path", s.secretPath).Msg("loaded HMAC secret")
		return kp, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	kp, err = Generate(license.AlgorithmHMACSHA256)
	if err != nil {
		return nil, false, err
	}
	if err := s.SaveSecret(kp); err != nil {
		return nil, false, err
	}
	s.logger.Info().Str("path", s.secretPath).Msg("created HMAC secret")
	return kp, true, nil
}

func (s *FileStore) write(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := s.fs.Chmod(path, filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) logKey(msg string, kp *KeyPair) {
	ev := s.logger.Info().Str("path", s.keyPath)
	if kid, err := KeyID(kp.Public()); err == nil {
		ev = ev.Str("kid", kid)
	}
	ev.Msg(msg)
}
