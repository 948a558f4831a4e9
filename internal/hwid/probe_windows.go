/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

//go:build windows

package hwid

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const probeTimeout = 10 * time.Second

// probe asks WMI for the first processor id and the first disk serial.
func probe(afero.Fs) (identifiers, error) {
	cpu, err := cimProperty("Win32_Processor", "ProcessorId")
	if err != nil {
		return identifiers{}, err
	}
	disk, err := cimProperty("Win32_DiskDrive", "SerialNumber")
	if err != nil {
		return identifiers{}, err
	}
	return identifiers{CPU: cpu, Disk: disk}, nil
}

func cimProperty(class, property string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	script := fmt.Sprintf("(Get-CimInstance -ClassName %s | Select-Object -First 1).%s", class, property)
	out, err := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script).Output()
	if err != nil {
		return "", fmt.Errorf("query %s.%s: %w", class, property, err)
	}
	return strings.TrimSpace(string(out)), nil
}
