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
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/manager"
)

func issueCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "Issue and sign a new license",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "customer", Usage: "Licensee name", Required: true},
			&cli.StringFlag{Name: "product", Usage: "Licensed product", Required: true},
			&cli.IntFlag{Name: "seats", Usage: "Number of seats", Value: 1},
			&cli.StringFlag{Name: "hwid", Usage: "Bind the license to this hardware ID"},
			&cli.BoolFlag{Name: "this-machine", Usage: "Bind the license to the hardware ID of this machine"},
			&cli.StringFlag{Name: "issued", Usage: "Issue date `YYYY-MM-DD` (default: today)"},
			&cli.StringFlag{Name: "expires", Usage: "Expiry date `YYYY-MM-DD` (default: never)"},
			&cli.StringFlag{Name: "notes", Usage: "Free-text notes"},
			&cli.StringFlag{Name: "key", Usage: "License key (default: generated)"},
			&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "ECDSA-P256 or HMAC-SHA256 (default: from config)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output `FILE` or directory"},
		},
		Action: runIssue,
	}
}

func runIssue(c *cli.Context) error {
	if c.IsSet("hwid") && c.Bool("this-machine") {
		return errors.New("--hwid and --this-machine are mutually exclusive")
	}

	req := manager.IssueRequest{
		Key:        c.String("key"),
		Customer:   c.String("customer"),
		Product:    c.String("product"),
		Seats:      c.Int("seats"),
		HardwareID: c.String("hwid"),
		IssuedAt:   c.String("issued"),
		ExpiresAt:  c.String("expires"),
		Notes:      c.String("notes"),
	}
	if c.IsSet("algorithm") {
		alg, err := license.ParseAlgorithm(c.String("algorithm"))
		if err != nil {
			return err
		}
		req.Algorithm = alg
	}

	m, logger, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if c.Bool("this-machine") {
		req.HardwareID = m.HardwareID()
	}

	a, err := m.Issue(c.Context, req)
	if errors.Is(err, manager.ErrPersistence) {
		// the license is valid; only the issuer's record is missing
		logger.Warn().Err(err).Msg("license file will be written but is not recorded in the database")
	} else if err != nil {
		return fmt.Errorf("failed to issue license: %w", err)
	}

	path := outputPath(c.String("out"), a.Record)
	if err := m.WriteArtifact(path, a); err != nil {
		return err
	}

	fmt.Print(license.Summary(a.Record))
	fmt.Printf("Saved %s\n", path)
	return nil
}

func outputPath(out string, r license.Record) string {
	name := license.SuggestedFileName(r)
	if out == "" {
		return name
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
