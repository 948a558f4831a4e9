/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/evaluator"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/hwid"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/manager"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a license file and report its status",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hwid", Usage: "Check against this hardware ID instead of this machine's"},
			&cli.StringFlag{Name: "date", Usage: "Check as of `YYYY-MM-DD` instead of today"},
		},
		Action: runVerify,
	}
}

func runVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("verify expects exactly one license file")
	}
	path := c.Args().First()

	var opts []manager.Option
	if c.IsSet("hwid") {
		opts = append(opts, manager.WithHardwareIdentity(hwid.Static(c.String("hwid"))))
	}
	if c.IsSet("date") {
		clock, err := evaluator.FixedDate(c.String("date"))
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		opts = append(opts, manager.WithClock(clock))
	}

	m, _, err := openManager(c, opts...)
	if err != nil {
		return err
	}
	defer m.Close()

	a, err := m.ReadArtifact(path)
	if err != nil {
		return err
	}
	res, err := m.Verify(c.Context, a)
	if err != nil && !errors.Is(err, evaluator.ErrNoVerificationKey) && !errors.Is(err, license.ErrUnsupportedAlgorithm) {
		return err
	}

	fmt.Printf("File:   %s\n", filepath.Base(path))
	fmt.Printf("Status: %s\n", res.Status)
	if res.Status == evaluator.StatusSignatureInvalid {
		fmt.Printf("Reason: %s\n", invalidReason(a, err))
	} else {
		if res.KeyID != "" {
			fmt.Printf("Key id: %s\n", res.KeyID)
			fmt.Printf("Issuer: %s\n", issuerText(res))
		}
		if res.Status == evaluator.StatusHardwareMismatch {
			fmt.Printf("This machine: %s\n", res.HardwareID)
		}
		fmt.Print(license.Summary(res.Record))
	}

	if !res.Valid() {
		return cli.Exit("", 1)
	}
	return nil
}

// invalidReason tells the operator why a license did not verify.
func invalidReason(a *license.Artifact, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case a.Legacy():
		return "old license format without hardware ID field, reissue the license"
	default:
		return "signature does not match the license data"
	}
}

func issuerText(res evaluator.Result) string {
	if res.KnownIssuer {
		return "signing key of this installation"
	}
	return "unknown key embedded in the license file"
}
