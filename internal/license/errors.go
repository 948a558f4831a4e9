/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import "errors"

var (
	ErrEncodingInvariant    = errors.New("license record violates encoding invariants")
	ErrArtifactFormat       = errors.New("invalid license artifact")
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)
