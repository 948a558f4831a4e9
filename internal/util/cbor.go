/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package util

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// COSE_Key labels and values (RFC 9052, RFC 9053) shown by name.
var (
	coseKeyLabels = map[int64]string{
		1:  "kty",
		2:  "kid",
		3:  "alg",
		4:  "key_ops",
		-1: "crv",
		-2: "x",
		-3: "y",
		-4: "d",
	}
	coseKeyTypes  = map[int64]string{1: "OKP", 2: "EC2", 4: "Symmetric"}
	coseAlgs      = map[int64]string{-7: "ES256", -9: "ESP256", -35: "ES384", -8: "EdDSA"}
	coseEC2Curves = map[int64]string{1: "P-256", 2: "P-384", 3: "P-521"}
)

// RenderCOSEKey decodes a CBOR COSE_Key and renders it as indented JSON
// with labels and well-known values spelled out. Byte strings are shown
// as h'..'.
func RenderCOSEKey(data []byte) (string, error) {
	var decoded map[any]any
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("decode COSE_Key: %w", err)
	}

	out := make(map[string]any, len(decoded))
	for k, v := range decoded {
		label, ok := toInt64(k)
		if !ok {
			out[stringifyCBORKey(k)] = normaliseCBOR(v)
			continue
		}
		name, known := coseKeyLabels[label]
		if !known {
			name = fmt.Sprint(label)
		}
		out[name] = namedValue(label, v)
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(pretty), nil
}

func namedValue(label int64, v any) any {
	n, ok := toInt64(v)
	if !ok {
		return normaliseCBOR(v)
	}
	var names map[int64]string
	switch label {
	case 1:
		names = coseKeyTypes
	case 3:
		names = coseAlgs
	case -1:
		names = coseEC2Curves
	}
	if name, ok := names[n]; ok {
		return fmt.Sprintf("%s (%d)", name, n)
	}
	return n
}

func normaliseCBOR(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = normaliseCBOR(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[stringifyCBORKey(key)] = normaliseCBOR(val)
		}
		return out
	case []byte:
		return fmt.Sprintf("h'%x'", v)
	case cbor.Tag:
		return map[string]any{
			"_cborTag": v.Number,
			"content":  normaliseCBOR(v.Content),
		}
	default:
		return v
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func stringifyCBORKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	case []byte:
		return fmt.Sprintf("h'%x'", k)
	default:
		return fmt.Sprint(k)
	}
}
