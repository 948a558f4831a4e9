/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/hwid"
)

func hwidCommand() *cli.Command {
	return &cli.Command{
		Name:  "hwid",
		Usage: "Print the hardware ID of this machine",
		Action: func(c *cli.Context) error {
			fmt.Println(hwid.NewSystem(newLogger(c, nil)).HardwareID())
			return nil
		},
	}
}
