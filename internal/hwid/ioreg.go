/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package hwid

import (
	"strings"
)

// parseIOReg picks the platform UUID and serial number out of
// `ioreg -rd1 -c IOPlatformExpertDevice` output.
func parseIOReg(out string) identifiers {
	var ids identifiers
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `"`)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch key {
		case "IOPlatformUUID":
			ids.CPU = value
		case "IOPlatformSerialNumber":
			ids.Disk = value
		}
	}
	return ids
}
