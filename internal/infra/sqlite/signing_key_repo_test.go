/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain/model"
)

func TestSigningKey_CreateFindByKID_OK(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, MemoryDSN)
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	repo := NewSigningKeyRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	key := &model.SigningKey{
		KID:       []byte("kid-1"), // COSE_Key thumbprint in production
		Algorithm: "ECDSA-P256",
		PublicKey: []byte("pub-key-1"),
		CreatedAt: now,
	}

	id, err := repo.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create key error: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}

	got, err := repo.FindByKID(ctx, key.KID)
	if err != nil {
		t.Fatalf("FindByKID error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected key, got nil")
	}
	if !bytes.Equal(got.PublicKey, key.PublicKey) {
		t.Fatalf("PublicKey mismatch: got %v want %v", got.PublicKey, key.PublicKey)
	}
	if got.Algorithm != key.Algorithm {
		t.Fatalf("Algorithm mismatch: got %q want %q", got.Algorithm, key.Algorithm)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt mismatch: got %v want %v", got.CreatedAt, now)
	}

	// the same kid twice
	_, err = repo.Create(ctx, key)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}

	keys, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
}

func TestSigningKey_FindByKID_NotFound(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, MemoryDSN)
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	defer CloseDB(db)

	got, err := NewSigningKeyRepository(db).FindByKID(ctx, []byte("missing"))
	if err != nil {
		t.Fatalf("FindByKID error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
