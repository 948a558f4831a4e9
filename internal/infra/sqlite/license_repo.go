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
	"time"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/model"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

// LicenseRepository handles issued license persistence.
type LicenseRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{db: db, now: time.Now}
}

const licenseColumns = `
	id, license_key, version, customer, product, seats, hwid, issued_at,
	expires_at, notes, algorithm, signature, is_revoked, created_at, updated_at`

// InsertOrUpdate stores the license keyed by its license key and returns the
// row id. Re-issuing a key replaces every signed field but keeps is_revoked.
func (r *LicenseRepository) InsertOrUpdate(ctx context.Context, rec license.Record, signature string, alg license.Algorithm) (int64, error) {
	const q = `
		INSERT INTO licenses
			(license_key, version, customer, product, seats, hwid, issued_at, expires_at, notes, algorithm, signature, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(license_key) DO UPDATE SET
			version    = excluded.version,
			customer   = excluded.customer,
			product    = excluded.product,
			seats      = excluded.seats,
			hwid       = excluded.hwid,
			issued_at  = excluded.issued_at,
			expires_at = excluded.expires_at,
			notes      = excluded.notes,
			algorithm  = excluded.algorithm,
			signature  = excluded.signature,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := r.now().UTC().Truncate(time.Second)
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		rec.Key, rec.Version, rec.Customer, rec.Product, rec.Seats,
		nullString(rec.HardwareID), rec.IssuedAt, nullString(rec.ExpiresAt), rec.Notes,
		string(alg), signature, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert license %s: %w", rec.Key, err)
	}
	return id, nil
}

// FindByKey returns the license with the given key, or domain.ErrNotFound.
func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*model.License, error) {
	q := `SELECT` + licenseColumns + `
		FROM licenses
		WHERE license_key = ?
		LIMIT 1
	`
	l, err := scanLicense(r.db.QueryRowContext(ctx, q, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan license: %w", err)
	}
	return l, nil
}

// List returns every license, newest first.
func (r *LicenseRepository) List(ctx context.Context) ([]*model.License, error) {
	q := `SELECT` + licenseColumns + `
		FROM licenses
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []*model.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return licenses, nil
}

// SetRevoked sets or clears the revocation flag. It returns
// domain.ErrNotFound when no license has the key.
func (r *LicenseRepository) SetRevoked(ctx context.Context, key string, revoked bool) error {
	const q = `
		UPDATE licenses
		SET is_revoked = ?, updated_at = ?
		WHERE license_key = ?
	`
	res, err := r.db.ExecContext(ctx, q, revoked, r.now().UTC().Truncate(time.Second), key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IsRevoked reports the revocation flag of key. Unknown keys are not revoked.
func (r *LicenseRepository) IsRevoked(ctx context.Context, key string) (bool, error) {
	const q = `SELECT is_revoked FROM licenses WHERE license_key = ? LIMIT 1`
	var revoked bool
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return revoked, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLicense(row rowScanner) (*model.License, error) {
	var (
		l         model.License
		hwid      sql.NullString
		expiresAt sql.NullString
		alg       string
	)
	err := row.Scan(
		&l.ID, &l.Record.Key, &l.Record.Version, &l.Record.Customer, &l.Record.Product,
		&l.Record.Seats, &hwid, &l.Record.IssuedAt, &expiresAt, &l.Record.Notes,
		&alg, &l.Signature, &l.Revoked, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Record.HardwareID = hwid.String
	l.Record.ExpiresAt = expiresAt.String
	l.Algorithm = license.Algorithm(alg)
	return &l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
