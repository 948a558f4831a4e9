/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifact_MarshalShape(t *testing.T) {
	a := &Artifact{Record: acme, Signature: "sig", Algorithm: AlgorithmHMACSHA256}
	data, err := a.Marshal()
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Len(t, top, 3)
	assert.Contains(t, top, "license")
	assert.Contains(t, top, "signature")
	assert.Contains(t, top, "algorithm")
	assert.NotContains(t, top, "public_key")

	var lic map[string]any
	require.NoError(t, json.Unmarshal(top["license"], &lic))
	assert.Len(t, lic, 9)
	assert.Equal(t, "", lic["hwid"])

	a.Algorithm = AlgorithmECDSAP256
	a.PublicKey = "-----BEGIN PUBLIC KEY-----\n..."
	data, err = a.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"public_key"`)
}

func TestParseArtifact_RoundTrip(t *testing.T) {
	in := &Artifact{Record: acme, Signature: "abc", Algorithm: AlgorithmECDSAP256, PublicKey: "pem"}
	in.Record.Notes = "<b>&</b>"
	data, err := in.Marshal()
	require.NoError(t, err)

	out, err := ParseArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseArtifact_PythonFile(t *testing.T) {
	// as written by json.dump(full_license, f, indent=4)
	data := []byte(`{
    "license": {
        "customer": "Acme",
        "expires_at": "2025-01-01",
        "hwid": "",
        "issued_at": "2024-01-01",
        "key": "AAAA-BBBB-CCCC-DDDD",
        "notes": "",
        "product": "Widget",
        "seats": 5,
        "version": 1
    },
    "signature": "iyqS7eKjNbhFmAMEgrh9kpOFspKCLfNpkLkw7hplMyg",
    "algorithm": "HMAC-SHA256"
}`)
	a, err := ParseArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, acme, a.Record)
	assert.Equal(t, AlgorithmHMACSHA256, a.Algorithm)
	assert.Empty(t, a.PublicKey)
	assert.False(t, a.Legacy())
}

func TestParseArtifact_Legacy(t *testing.T) {
	// records signed before hardware binding have no hwid field
	data := []byte(`{
    "license": {
        "customer": "Acme",
        "expires_at": "2025-01-01",
        "issued_at": "2024-01-01",
        "key": "AAAA-BBBB-CCCC-DDDD",
        "notes": "",
        "product": "Widget",
        "seats": 5,
        "version": 1
    },
    "signature": "iyqS7eKjNbhFmAMEgrh9kpOFspKCLfNpkLkw7hplMyg",
    "algorithm": "HMAC-SHA256"
}`)
	a, err := ParseArtifact(data)
	require.NoError(t, err)
	assert.True(t, a.Legacy())
	assert.Empty(t, a.Record.HardwareID)

	// an explicit empty hwid is the current format
	a, err = ParseArtifact([]byte(`{"license":{"hwid":""},"signature":"x","algorithm":"HMAC-SHA256"}`))
	require.NoError(t, err)
	assert.False(t, a.Legacy())
}

func TestParseArtifact_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":          `license`,
		"missing license":   `{"signature":"x","algorithm":"HMAC-SHA256"}`,
		"missing signature": `{"license":{},"algorithm":"HMAC-SHA256"}`,
		"missing algorithm": `{"license":{},"signature":"x"}`,
		"seats as string":   `{"license":{"seats":"5"},"signature":"x","algorithm":"HMAC-SHA256"}`,
		"signature number":  `{"license":{},"signature":5,"algorithm":"HMAC-SHA256"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArtifact([]byte(body))
			assert.ErrorIs(t, err, ErrArtifactFormat)
		})
	}
}

func TestParseArtifact_KeepsUnknownAlgorithm(t *testing.T) {
	a, err := ParseArtifact([]byte(`{"license":{},"signature":"x","algorithm":"none"}`))
	require.NoError(t, err)
	assert.Equal(t, Algorithm("none"), a.Algorithm)
}

func TestSuggestedFileName(t *testing.T) {
	r := acme
	r.Customer = "Acme Corp"
	r.Product = "Widget Pro"
	assert.Equal(t, "Acme_Corp_Widget_Pro.license.json", SuggestedFileName(r))
}

func TestNewKey(t *testing.T) {
	key, err := NewKey(DefaultKeyGroups, DefaultKeyGroupLength)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{5}-[A-Z0-9]{5}-[A-Z0-9]{5}-[A-Z0-9]{5}$`), key)

	key, err = NewKey(4, 4)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^([A-Z0-9]{4}-){3}[A-Z0-9]{4}$`), key)

	other, err := NewKey(4, 4)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = NewKey(0, 5)
	assert.Error(t, err)
}

func TestRandomIndex_RejectsBiasedBytes(t *testing.T) {
	// 252 is the first byte past the largest multiple of 36
	r := &fixedReader{b: []byte{255, 252, 37}}
	i, err := randomIndex(r, 36)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

type fixedReader struct{ b []byte }

func (f *fixedReader) Read(p []byte) (int, error) {
	n := copy(p, f.b)
	f.b = f.b[n:]
	return n, nil
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "AB12-CD34", NormalizeKey("  ab12-cd34\n"))
}

func TestValidity(t *testing.T) {
	tests := []struct {
		issued, expires, want string
	}{
		{"2024-01-01", "", "unlimited"},
		{"2024-01-01", "2025-01-01", "1 year(s)"},
		{"2024-01-01", "2025-03-15", "1 year(s) and 2 month(s)"},
		{"2024-01-01", "2024-03-01", "2 month(s)"},
		{"2024-01-01", "2024-01-20", "19 day(s)"},
		{"2024-01-01", "junk", ""},
	}
	for _, tt := range tests {
		r := acme
		r.IssuedAt, r.ExpiresAt = tt.issued, tt.expires
		assert.Equal(t, tt.want, Validity(r), "%s..%s", tt.issued, tt.expires)
	}
}

func TestSummary(t *testing.T) {
	s := Summary(acme)
	assert.Contains(t, s, "Acme")
	assert.Contains(t, s, "AAAA-BBBB-CCCC-DDDD")
	assert.Contains(t, s, "1 year(s)")
	assert.NotContains(t, s, "Hardware ID")
}
