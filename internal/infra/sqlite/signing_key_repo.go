/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/model"
)

// SigningKeyRepository handles signing public key persistence.
type SigningKeyRepository struct {
	db *sql.DB
}

func NewSigningKeyRepository(db *sql.DB) *SigningKeyRepository {
	return &SigningKeyRepository{db: db}
}

// Create inserts a new signing key and returns the inserted id. A key id
// that is already stored yields domain.ErrAlreadyExists.
func (r *SigningKeyRepository) Create(ctx context.Context, key *model.SigningKey) (int64, error) {
	const q = `
		INSERT INTO signing_keys (kid, algorithm, public_key, created_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q, key.KID, key.Algorithm, key.PublicKey, key.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, domain.ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert signing_key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByKID returns a signing key by KID, or nil when there is none.
func (r *SigningKeyRepository) FindByKID(ctx context.Context, kid []byte) (*model.SigningKey, error) {
	const q = `
		SELECT id, kid, algorithm, public_key, created_at
		FROM signing_keys
		WHERE kid = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, kid)
	var key model.SigningKey
	if err := row.Scan(&key.ID, &key.KID, &key.Algorithm, &key.PublicKey, &key.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan signing_key: %w", err)
	}
	return &key, nil
}

// List returns all signing keys, oldest first.
func (r *SigningKeyRepository) List(ctx context.Context) ([]*model.SigningKey, error) {
	const q = `
		SELECT id, kid, algorithm, public_key, created_at
		FROM signing_keys
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*model.SigningKey
	for rows.Next() {
		var key model.SigningKey
		if err := rows.Scan(&key.ID, &key.KID, &key.Algorithm, &key.PublicKey, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signing_key: %w", err)
		}
		keys = append(keys, &key)
	}
	return keys, rows.Err()
}
