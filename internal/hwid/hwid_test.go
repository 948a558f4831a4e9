/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package hwid

import (
	"errors"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newTestSystem(ids identifiers, probeErr error, host string) *System {
	s := NewSystem(zerolog.Nop())
	s.fs = afero.NewMemMapFs()
	s.probe = func(afero.Fs) (identifiers, error) { return ids, probeErr }
	s.hostname = func() (string, error) { return host, nil }
	return s
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "9EC37DB276FF71831C63913D", Fingerprint("ProcessorX", "DiskY"))
	assert.Equal(t, "F1D31E096165ACF279C2588F", Fingerprint("build-host"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{24}$`), Fingerprint(""))
}

func TestSystem_UsesIdentifiers(t *testing.T) {
	s := newTestSystem(identifiers{CPU: " ProcessorX ", Disk: "DiskY\n"}, nil, "build-host")
	assert.Equal(t, "9EC37DB276FF71831C63913D", s.HardwareID())
}

func TestSystem_PartialIdentifiers(t *testing.T) {
	s := newTestSystem(identifiers{CPU: "ProcessorX"}, nil, "build-host")
	assert.Equal(t, Fingerprint("ProcessorX", ""), s.HardwareID())
}

func TestSystem_FallsBackToHostname(t *testing.T) {
	s := newTestSystem(identifiers{}, errors.New("wmi unavailable"), "build-host")
	assert.Equal(t, "F1D31E096165ACF279C2588F", s.HardwareID())

	s = newTestSystem(identifiers{}, nil, "build-host")
	assert.Equal(t, "F1D31E096165ACF279C2588F", s.HardwareID())

	s = newTestSystem(identifiers{}, errUnavailable, "")
	assert.Equal(t, Fingerprint("unknown"), s.HardwareID())
}

func TestSystem_Cached(t *testing.T) {
	calls := 0
	s := newTestSystem(identifiers{}, nil, "")
	s.probe = func(afero.Fs) (identifiers, error) {
		calls++
		return identifiers{CPU: "c", Disk: "d"}, nil
	}
	first := s.HardwareID()
	assert.Equal(t, first, s.HardwareID())
	assert.Equal(t, 1, calls)
}

func TestStatic(t *testing.T) {
	var p Provider = Static("XYZ999")
	assert.Equal(t, "XYZ999", p.HardwareID())
}

func TestParseIOReg(t *testing.T) {
	out := `+-o J314sAP  <class IOPlatformExpertDevice, id 0x100000228, registered, matched, active, busy 0 (1 ms), retain 41>
    {
      "IOPlatformSerialNumber" = "C02XK0ABCD12"
      "IOPlatformUUID" = "1A2B3C4D-0000-1111-2222-333344445555"
      "model" = <"MacBookPro18,3">
    }`
	ids := parseIOReg(out)
	assert.Equal(t, "1A2B3C4D-0000-1111-2222-333344445555", ids.CPU)
	assert.Equal(t, "C02XK0ABCD12", ids.Disk)
}
