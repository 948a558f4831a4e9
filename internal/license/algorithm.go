/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import "fmt"

// Algorithm is the signature algorithm tag carried in every artifact.
type Algorithm string

const (
	AlgorithmHMACSHA256 Algorithm = "HMAC-SHA256"
	AlgorithmECDSAP256  Algorithm = "ECDSA-P256"
)

// ParseAlgorithm accepts only the exact tags written by this package.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case AlgorithmHMACSHA256, AlgorithmECDSAP256:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}

func (a Algorithm) String() string {
	return string(a)
}

// Supported reports whether a names an implemented algorithm.
func (a Algorithm) Supported() bool {
	_, err := ParseAlgorithm(string(a))
	return err == nil
}

// Asymmetric reports whether verification uses a public key rather than a
// shared secret.
func (a Algorithm) Asymmetric() bool {
	return a == AlgorithmECDSAP256
}
