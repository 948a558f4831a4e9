/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package evaluator

import (
	"time"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

// Clock supplies the current time. Only its calendar date is used.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedDate is a Clock stuck at midnight of a DateLayout date.
func FixedDate(date string) (Clock, error) {
	t, err := license.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return ClockFunc(func() time.Time { return t }), nil
}
