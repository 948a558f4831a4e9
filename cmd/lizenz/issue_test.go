/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

func TestOutputPath(t *testing.T) {
	rec := license.Record{Customer: "ACME GmbH", Product: "Suite"}
	dir := t.TempDir()

	assert.Equal(t, "ACME_GmbH_Suite.license.json", outputPath("", rec))
	assert.Equal(t, filepath.Join(dir, "ACME_GmbH_Suite.license.json"), outputPath(dir, rec))
	assert.Equal(t, filepath.Join(dir, "x.license.json"), outputPath(filepath.Join(dir, "x.license.json"), rec))
}
