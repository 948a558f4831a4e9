/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/util"
)

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage signing keys",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Create the ECDSA signing key pair if it does not exist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rotate",
						Usage: "Replace an existing key pair with a new one",
					},
				},
				Action: runKeysGenerate,
			},
			{
				Name:  "show",
				Usage: "Print the public signing key and its key id",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "cose",
						Usage: "Print the key as a COSE_Key",
					},
				},
				Action: runKeysShow,
			},
			{
				Name:   "list",
				Usage:  "List every key this installation has signed with",
				Action: runKeysList,
			},
			{
				Name:   "secret",
				Usage:  "Create the HMAC-SHA256 secret if it does not exist",
				Action: runKeysSecret,
			},
		},
	}
}

func runKeysGenerate(c *cli.Context) error {
	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if c.Bool("rotate") {
		kid, err := m.RotateSigningKey(c.Context)
		if err != nil {
			return fmt.Errorf("failed to rotate signing key: %w", err)
		}
		fmt.Printf("Generated new signing key %s\n", kid)
		return nil
	}

	kid, err := m.KeyID()
	if err != nil {
		return err
	}
	fmt.Printf("Signing key %s\n", kid)
	return nil
}

func runKeysShow(c *cli.Context) error {
	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	kid, err := m.KeyID()
	if err != nil {
		return err
	}

	if c.Bool("cose") {
		data, err := m.COSEKey()
		if err != nil {
			return err
		}
		rendered, err := util.RenderCOSEKey(data)
		if err != nil {
			return err
		}
		fmt.Printf("kid: %s\ncbor: %s\n%s\n", kid, hex.EncodeToString(data), rendered)
		return nil
	}

	pem, err := m.PublicKeyPEM()
	if err != nil {
		return err
	}
	fmt.Printf("kid: %s\n%s", kid, pem)
	return nil
}

func runKeysList(c *cli.Context) error {
	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	keys, err := m.SigningKeys(c.Context)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Printf("%x  %s  %s\n", k.KID, k.Algorithm, k.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runKeysSecret(c *cli.Context) error {
	m, _, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	path, created, err := m.EnsureSecret()
	if err != nil {
		return fmt.Errorf("failed to create HMAC secret: %w", err)
	}
	if created {
		fmt.Printf("Created HMAC secret at %s\n", path)
	} else {
		fmt.Printf("HMAC secret exists at %s\n", path)
	}
	return nil
}
