/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/model"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

// LicenseRepository defines the interface for issued license persistence.
type LicenseRepository interface {
	// InsertOrUpdate stores the license, replacing the row with the same key.
	// The revocation flag of an existing row is kept.
	InsertOrUpdate(ctx context.Context, rec license.Record, signature string, alg license.Algorithm) (int64, error)
	FindByKey(ctx context.Context, key string) (*model.License, error)
	// List returns all licenses, newest first.
	List(ctx context.Context) ([]*model.License, error)
	SetRevoked(ctx context.Context, key string, revoked bool) error
	// IsRevoked is false for unknown keys.
	IsRevoked(ctx context.Context, key string) (bool, error)
}

// SigningKeyRepository defines the interface for signing public key persistence.
type SigningKeyRepository interface {
	Create(ctx context.Context, key *model.SigningKey) (int64, error)
	FindByKID(ctx context.Context, kid []byte) (*model.SigningKey, error)
	List(ctx context.Context) ([]*model.SigningKey, error)
}
