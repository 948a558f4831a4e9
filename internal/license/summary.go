/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"fmt"
	"strings"
)

// Validity renders the span between issuance and expiry, counting 365-day
// years and 30-day months. It returns "unlimited" for perpetual records and
// "" when a date does not parse.
func Validity(r Record) string {
	if r.Perpetual() {
		return "unlimited"
	}
	issued, err := ParseDate(r.IssuedAt)
	if err != nil {
		return ""
	}
	expires, err := ParseDate(r.ExpiresAt)
	if err != nil {
		return ""
	}

	days := int(expires.Sub(issued).Hours() / 24)
	years, rem := days/365, days%365
	months := rem / 30
	switch {
	case years > 0 && months > 0:
		return fmt.Sprintf("%d year(s) and %d month(s)", years, months)
	case years > 0:
		return fmt.Sprintf("%d year(s)", years)
	case months > 0:
		return fmt.Sprintf("%d month(s)", months)
	default:
		return fmt.Sprintf("%d day(s)", days)
	}
}

// Summary is the human-readable block shown after a license is issued.
func Summary(r Record) string {
	sep := strings.Repeat("-", 52)
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "  %-16s: %s\n", label, value)
	}

	b.WriteString(sep + "\n")
	b.WriteString("  LICENSE SUMMARY\n")
	b.WriteString(sep + "\n")
	line("Issued to", r.Customer)
	line("Product", r.Product)
	line("License key", r.Key)
	line("Seats", fmt.Sprint(r.Seats))
	if r.Bound() {
		line("Hardware ID", r.HardwareID)
	}
	line("Issued at", r.IssuedAt)
	if r.Perpetual() {
		line("Expires at", "-")
	} else {
		line("Expires at", r.ExpiresAt)
	}
	if v := Validity(r); v != "" {
		line("Validity", v)
	}
	b.WriteString(sep + "\n")
	return b.String()
}
