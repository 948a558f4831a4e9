/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

//go:build darwin

package hwid

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/afero"
)

const probeTimeout = 10 * time.Second

func probe(afero.Fs) (identifiers, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return identifiers{}, fmt.Errorf("ioreg: %w", err)
	}
	return parseIOReg(string(out)), nil
}
