/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultKeyGroups      = 4
	DefaultKeyGroupLength = 5
)

// NewKey returns a license key of groups blocks of groupLen characters
// from [A-Z0-9], joined by "-".
func NewKey(groups, groupLen int) (string, error) {
	return newKey(rand.Reader, groups, groupLen)
}

func newKey(r io.Reader, groups, groupLen int) (string, error) {
	if groups < 1 || groupLen < 1 {
		return "", errors.New("key shape must be at least 1x1")
	}

	chunks := make([]string, groups)
	for g := range chunks {
		chunk := make([]byte, groupLen)
		for i := range chunk {
			c, err := randomIndex(r, len(keyAlphabet))
			if err != nil {
				return "", fmt.Errorf("generate license key: %w", err)
			}
			chunk[i] = keyAlphabet[c]
		}
		chunks[g] = string(chunk)
	}
	return strings.Join(chunks, "-"), nil
}

// randomIndex draws uniformly from [0, n) by rejecting bytes past the
// largest multiple of n.
func randomIndex(r io.Reader, n int) (int, error) {
	limit := 256 - 256%n
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		if int(b[0]) < limit {
			return int(b[0]) % n, nil
		}
	}
}

// NormalizeKey trims operator input and upper-cases it.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
