/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/domain"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List issued licenses, newest first",
		Action: runList,
	}
}

func revokeCommand(revoke bool) *cli.Command {
	name, usage := "revoke", "Revoke a license"
	if !revoke {
		name, usage = "unrevoke", "Lift the revocation of a license"
	}
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			return runSetRevoked(c, revoke)
		},
	}
}

func runList(c *cli.Context) error {
	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	licenses, err := m.List(c.Context)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCUSTOMER\tPRODUCT\tSEATS\tEXPIRES\tALGORITHM\tSTATUS")
	for _, l := range licenses {
		expires := l.Record.ExpiresAt
		if expires == "" {
			expires = "-"
		}
		status := "active"
		if l.Revoked {
			status = "revoked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			l.Record.Key, l.Record.Customer, l.Record.Product, l.Record.Seats, expires, l.Algorithm, status)
	}
	return w.Flush()
}

func runSetRevoked(c *cli.Context, revoked bool) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%s expects exactly one license key", c.Command.Name)
	}
	key := c.Args().First()

	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.SetRevoked(c.Context, key, revoked); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no license with key %s", key)
		}
		return err
	}
	if revoked {
		fmt.Printf("Revoked %s\n", key)
	} else {
		fmt.Printf("Reactivated %s\n", key)
	}
	return nil
}
