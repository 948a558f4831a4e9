/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package hwid derives the machine fingerprint a license can be bound to.
// Hardware binding is advisory: when low-level identifiers are unavailable
// the fingerprint degrades to a hash of the host name instead of failing.
package hwid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Length is the number of hex characters kept from the SHA-256 digest.
const Length = 24

var errUnavailable = errors.New("hardware identifiers unavailable")

// Provider supplies the identity of the machine running the check.
type Provider interface {
	HardwareID() string
}

// Static is a fixed identity, for tests and for checking a license against
// another machine's fingerprint.
type Static string

func (s Static) HardwareID() string { return string(s) }

// Fingerprint hashes the identifiers joined by "-" and returns the first
// Length upper-case hex characters.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "-")))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:Length]
}

// identifiers are the low-level values behind a fingerprint.
type identifiers struct {
	CPU  string
	Disk string
}

// System reads the processor and primary disk identifiers of the local
// machine. The result is computed once and cached.
type System struct {
	fs       afero.Fs
	hostname func() (string, error)
	probe    func(afero.Fs) (identifiers, error)
	logger   zerolog.Logger

	once sync.Once
	id   string
}

func NewSystem(logger zerolog.Logger) *System {
	return &System{
		fs:       afero.NewOsFs(),
		hostname: os.Hostname,
		probe:    probe,
		logger:   logger.With().Str("component", "hwid").Logger(),
	}
}

func (s *System) HardwareID() string {
	s.once.Do(func() {
		s.id = s.compute()
	})
	return s.id
}

func (s *System) compute() string {
	ids, err := s.probe(s.fs)
	if err == nil && (ids.CPU != "" || ids.Disk != "") {
		return Fingerprint(strings.TrimSpace(ids.CPU), strings.TrimSpace(ids.Disk))
	}
	if err == nil {
		err = errUnavailable
	}

	host, herr := s.hostname()
	if herr != nil || host == "" {
		host = "unknown"
	}
	s.logger.Debug().Err(err).Msg("falling back to host name fingerprint")
	return Fingerprint(host)
}
