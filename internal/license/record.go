/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package license

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	// SchemaVersion is written into every newly issued record.
	SchemaVersion = 1
	// DateLayout is the calendar date format of issued_at and expires_at.
	DateLayout = "2006-01-02"
)

// Record is the signed entitlement payload. Dates are kept as the exact
// strings that were signed so that re-encoding never alters them.
type Record struct {
	Version    int    `json:"version" validate:"gte=1"`
	Key        string `json:"key" validate:"notblank"`
	Customer   string `json:"customer" validate:"notblank"`
	Product    string `json:"product" validate:"notblank"`
	Seats      int    `json:"seats" validate:"gte=1"`
	HardwareID string `json:"hwid"`
	IssuedAt   string `json:"issued_at" validate:"required,datetime=2006-01-02"`
	ExpiresAt  string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
	Notes      string `json:"notes"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the invariants a record must satisfy before it is
// encoded and signed. Violations wrap ErrEncodingInvariant.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrEncodingInvariant, err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrEncodingInvariant, strings.Join(fields, ", "))
	}

	if r.ExpiresAt != "" {
		issued, _ := ParseDate(r.IssuedAt)
		expires, _ := ParseDate(r.ExpiresAt)
		if expires.Before(issued) {
			return fmt.Errorf("%w: expires_at %s is before issued_at %s", ErrEncodingInvariant, r.ExpiresAt, r.IssuedAt)
		}
	}
	return nil
}

// Bound reports whether the record is tied to one machine.
func (r Record) Bound() bool {
	return r.HardwareID != ""
}

// Perpetual reports whether the record never expires.
func (r Record) Perpetual() bool {
	return r.ExpiresAt == ""
}

// ParseDate parses a calendar date in DateLayout as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders the calendar date of t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the calendar date of now as midnight UTC, comparable with
// dates returned by ParseDate.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
