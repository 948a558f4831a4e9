/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import (
	"time"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

// License is an issued license as recorded by the issuer.
type License struct {
	ID        int64
	Record    license.Record // license_key is unique
	Algorithm license.Algorithm
	Signature string
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
