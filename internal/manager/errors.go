/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manager

import "errors"

var (
	ErrNotInitialized = errors.New("manager is not initialized")
	// ErrPersistence is returned together with an artifact that was signed
	// but could not be recorded in the license database.
	ErrPersistence = errors.New("license database write failed")
)
