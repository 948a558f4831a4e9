/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FileExtension is appended to artifact files written for distribution.
const FileExtension = ".license.json"

// Artifact is the distributable unit: a record, its signature and the
// algorithm tag. PublicKey is a PEM public key, set only for ECDSA-P256.
type Artifact struct {
	Record    Record    `json:"license"`
	Signature string    `json:"signature"`
	Algorithm Algorithm `json:"algorithm"`
	PublicKey string    `json:"public_key,omitempty"`

	legacy bool
}

// Legacy reports whether the parsed file's record has no hwid field. Such
// files come from releases that signed records without hardware binding;
// their signatures cover a different encoding and never verify.
func (a *Artifact) Legacy() bool { return a.legacy }

// Marshal renders the artifact file.
func (a *Artifact) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

type rawArtifact struct {
	Record    *Record `json:"license"`
	Signature *string `json:"signature"`
	Algorithm *string `json:"algorithm"`
	PublicKey string  `json:"public_key"`
}

// ParseArtifact decodes an artifact file. The algorithm tag is kept as
// written; an unknown tag is rejected by the verifier, not here.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}

	var missing []string
	if raw.Record == nil {
		missing = append(missing, "license")
	}
	if raw.Signature == nil {
		missing = append(missing, "signature")
	}
	if raw.Algorithm == nil {
		missing = append(missing, "algorithm")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrArtifactFormat, strings.Join(missing, ", "))
	}

	var fields struct {
		License map[string]json.RawMessage `json:"license"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	_, hasHWID := fields.License["hwid"]

	return &Artifact{
		Record:    *raw.Record,
		Signature: *raw.Signature,
		Algorithm: Algorithm(*raw.Algorithm),
		PublicKey: raw.PublicKey,
		legacy:    !hasHWID,
	}, nil
}

// SuggestedFileName is the default file name offered for an artifact.
func SuggestedFileName(r Record) string {
	name := fmt.Sprintf("%s_%s%s", r.Customer, r.Product, FileExtension)
	return strings.ReplaceAll(name, " ", "_")
}
