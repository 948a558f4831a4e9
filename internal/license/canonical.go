/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"sort"
	"strconv"
	"unicode/utf16"
)

// Canonical encoding
//
// A record is written as one JSON object:
//   - every field is present, empty strings included
//   - keys are sorted by byte-wise lexicographic order
//   - "," and ":" separators, no whitespace
//   - integers in base 10
//   - strings are ASCII only: `"` `\` and \b \f \n \r \t use their short
//     escapes, every other rune outside 0x20..0x7E is written as \uXXXX
//     with lowercase hex, runes above U+FFFF as a UTF-16 surrogate pair.
//
// The output is byte-identical to Python's
// json.dumps(obj, ensure_ascii=True, separators=(",", ":"), sort_keys=True),
// which produced the licenses already in circulation.

type canonicalField struct {
	name  string
	str   string
	num   int
	isNum bool
}

func (r Record) canonicalFields() []canonicalField {
	fields := []canonicalField{
		{name: "version", num: r.Version, isNum: true},
		{name: "key", str: r.Key},
		{name: "customer", str: r.Customer},
		{name: "product", str: r.Product},
		{name: "seats", num: r.Seats, isNum: true},
		{name: "hwid", str: r.HardwareID},
		{name: "issued_at", str: r.IssuedAt},
		{name: "expires_at", str: r.ExpiresAt},
		{name: "notes", str: r.Notes},
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].name < fields[j].name
	})
	return fields
}

// Encode returns the canonical bytes of r. It never fails; callers that
// accept untrusted input run Validate first.
func Encode(r Record) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	for i, f := range r.canonicalFields() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendQuoted(buf, f.name)
		buf = append(buf, ':')
		if f.isNum {
			buf = strconv.AppendInt(buf, int64(f.num), 10)
		} else {
			buf = appendQuoted(buf, f.str)
		}
	}
	return append(buf, '}')
}

const hexDigits = "0123456789abcdef"

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf = append(buf, byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				buf = appendUnicodeEscape(buf, hi)
				buf = appendUnicodeEscape(buf, lo)
			default:
				// invalid UTF-8 arrives here as U+FFFD
				buf = appendUnicodeEscape(buf, r)
			}
		}
	}
	return append(buf, '"')
}

func appendUnicodeEscape(buf []byte, r rune) []byte {
	return append(buf, '\\', 'u',
		hexDigits[r>>12&0xf],
		hexDigits[r>>8&0xf],
		hexDigits[r>>4&0xf],
		hexDigits[r&0xf],
	)
}
