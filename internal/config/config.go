/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"

	"github.com/TGH-Scripts/LizenzGeneratorPro/internal/license"
)

const (
	EnvPrefix      = "LIZENZ_"
	FileName       = "lizenz.toml"
	DatabaseFile   = "licenses.db"
	KeyFile        = "generator_keys.json"
	SecretFile     = "hmac_secret.txt"
	vendorDir      = "TGH-Scripts"
	applicationDir = "LizenzGeneratorPro"
)

// Config is the issuing application's configuration.
type Config struct {
	DataDir string `koanf:"data_dir" validate:"required"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	Database struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"database"`

	Keys struct {
		File       string `koanf:"file" validate:"required"`
		SecretFile string `koanf:"secret_file" validate:"required"`
	} `koanf:"keys"`

	Issue struct {
		Algorithm      string `koanf:"algorithm" validate:"oneof=ECDSA-P256 HMAC-SHA256"`
		KeyGroups      int    `koanf:"key_groups" validate:"gt=0"`
		KeyGroupLength int    `koanf:"key_group_length" validate:"gt=0"`
	} `koanf:"issue"`

	Verify struct {
		// key ids accepted for ECDSA artifacts; empty trusts the embedded key
		PinnedKeys []string `koanf:"pinned_keys" validate:"dive,len=64,hexadecimal"`
	} `koanf:"verify"`
}

// Algorithm is Issue.Algorithm as a license.Algorithm.
func (c *Config) Algorithm() license.Algorithm {
	return license.Algorithm(c.Issue.Algorithm)
}

// DefaultDataDir is %APPDATA%\TGH-Scripts\LizenzGeneratorPro on Windows and
// ~/TGH-Scripts/LizenzGeneratorPro elsewhere.
func DefaultDataDir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, vendorDir, applicationDir), nil
	}
	dir, err := homedir.Expand(filepath.Join("~", vendorDir, applicationDir))
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return dir, nil
}

// Load reads the configuration: built-in defaults, then the TOML file at
// configPath (or lizenz.toml in the data directory when it exists), then
// LIZENZ_ environment variables. Nested keys are separated by "__" in
// variable names, e.g. LIZENZ_DATABASE__PATH sets database.path.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"data_dir":               dataDir,
		"log.level":              "info",
		"issue.algorithm":        string(license.AlgorithmECDSAP256),
		"issue.key_groups":       license.DefaultKeyGroups,
		"issue.key_group_length": license.DefaultKeyGroupLength,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// the data directory may itself come from the environment
	envProvider := env.ProviderWithValue(EnvPrefix, ".", envKey)
	if configPath == "" {
		probe := koanf.New(".")
		if err := probe.Load(envProvider, nil); err != nil {
			return nil, fmt.Errorf("error loading environment: %w", err)
		}
		dir := k.String("data_dir")
		if probe.Exists("data_dir") {
			dir = probe.String("data_dir")
		}
		if dir, err = homedir.Expand(dir); err == nil {
			if candidate := filepath.Join(dir, FileName); fileExists(candidate) {
				configPath = candidate
			}
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "verify.pinned_keys" {
		var kids []string
		for _, kid := range strings.Split(value, ",") {
			if kid = strings.TrimSpace(kid); kid != "" {
				kids = append(kids, kid)
			}
		}
		return key, kids
	}
	return key, value
}

// resolvePaths expands "~" and fills file locations left empty with their
// default names inside the data directory.
func (c *Config) resolvePaths() error {
	var err error
	if c.DataDir, err = homedir.Expand(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	for _, p := range []struct {
		value *string
		name  string
	}{
		{&c.Database.Path, DatabaseFile},
		{&c.Keys.File, KeyFile},
		{&c.Keys.SecretFile, SecretFile},
	} {
		if *p.value == "" {
			*p.value = filepath.Join(c.DataDir, p.name)
			continue
		}
		if *p.value, err = homedir.Expand(*p.value); err != nil {
			return err
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("invalid configuration: log.level: %w", err)
		}
	}
	return nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if fileExists(configPath) {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return err
	}

	sampleConfig := `# LizenzGenerator Pro configuration

# data_dir = "~/TGH-Scripts/LizenzGeneratorPro"

[log]
level = "info"

[database]
# path = "licenses.db inside data_dir"

[keys]
# file = "generator_keys.json inside data_dir"
# secret_file = "hmac_secret.txt inside data_dir"

[issue]
algorithm = "ECDSA-P256"   # or "HMAC-SHA256"
key_groups = 4
key_group_length = 5

[verify]
# Key ids (lizenz keys show) accepted for ECDSA licenses. When empty, the
# public key embedded in a license is trusted, which proves only that the
# license is internally consistent, not who issued it.
pinned_keys = []
`
	return os.WriteFile(configPath, []byte(sampleConfig), 0o600)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
