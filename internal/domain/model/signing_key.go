/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// SigningKey is a public key the issuer has signed licenses with.
type SigningKey struct {
	ID        int64
	KID       []byte // COSE_Key thumbprint, unique
	Algorithm string
	PublicKey []byte // COSE_Key
	CreatedAt time.Time
}
