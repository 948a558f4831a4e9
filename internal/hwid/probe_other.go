/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

//go:build !linux && !windows && !darwin

package hwid

import "github.com/spf13/afero"

func probe(afero.Fs) (identifiers, error) {
	return identifiers{}, errUnavailable
}
