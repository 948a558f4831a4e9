/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

//go:build linux

package hwid

import (
	"bufio"
	"bytes"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var virtualBlockPrefixes = []string{"loop", "ram", "dm-", "zram", "sr", "md", "nbd"}

func probe(fs afero.Fs) (identifiers, error) {
	return identifiers{CPU: linuxCPU(fs), Disk: linuxDisk(fs)}, nil
}

// linuxCPU prefers the SoC serial from /proc/cpuinfo, then the DMI product
// UUID, then the machine id.
func linuxCPU(fs afero.Fs) string {
	if data, err := afero.ReadFile(fs, "/proc/cpuinfo"); err == nil {
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			key, value, ok := strings.Cut(sc.Text(), ":")
			if ok && strings.TrimSpace(key) == "Serial" {
				if v := strings.TrimSpace(value); v != "" && strings.Trim(v, "0") != "" {
					return v
				}
			}
		}
	}
	for _, p := range []string{"/sys/class/dmi/id/product_uuid", "/etc/machine-id"} {
		if v := readTrimmed(fs, p); v != "" {
			return v
		}
	}
	return ""
}

// linuxDisk returns the serial of the first physical block device.
func linuxDisk(fs afero.Fs) string {
	entries, err := afero.ReadDir(fs, "/sys/block")
	if err != nil {
		return ""
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !isVirtualBlock(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		for _, f := range []string{"device/serial", "device/wwid", "serial"} {
			if v := readTrimmed(fs, path.Join("/sys/block", name, f)); v != "" {
				return v
			}
		}
	}
	return ""
}

func isVirtualBlock(name string) bool {
	for _, p := range virtualBlockPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func readTrimmed(fs afero.Fs, p string) string {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
