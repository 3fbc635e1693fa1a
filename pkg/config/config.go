// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads git-review settings from GIT_REVIEW_* environment
// variables. Command-line flags override them.
package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/keyring"
	"github.com/sigstore/git-review/pkg/objectstore"
)

// EnvPrefix prefixes every environment variable, e.g. GIT_REVIEW_BACKEND.
const EnvPrefix = "GIT_REVIEW"

var validate = validator.New()

// Config holds the tool settings.
type Config struct {
	// GitPath is the git executable used by the git backend.
	GitPath string `split_words:"true" default:"git" validate:"required"`
	// GPGPath is the gpg executable used for signing.
	GPGPath string `split_words:"true" default:"gpg" validate:"required"`
	// GPGVPath is the gpgv executable used for verification.
	GPGVPath string `split_words:"true" default:"gpgv" validate:"required"`
	// KeyringConfig is the keyring configuration file.
	KeyringConfig string `split_words:"true" default:"keyrings.json" validate:"required"`
	// Backend selects the object store.
	Backend string `default:"git" validate:"oneof=git go-git"`
	// Repository is a directory inside the repository to operate on.
	Repository string `default:"." validate:"required"`
	// Concurrency bounds parallel gpgv runs.
	Concurrency int `default:"4" validate:"min=1,max=64"`
	// AllowUnsigned accepts commits no keyring vouches for.
	AllowUnsigned bool `split_words:"true"`
	// SigningKey is the default key for sign.
	SigningKey string `split_words:"true"`
}

// Default returns the built-in settings, ignoring the environment.
func Default() Config {
	return Config{
		GitPath:       "git",
		GPGPath:       "gpg",
		GPGVPath:      "gpgv",
		KeyringConfig: keyring.DefaultConfigFile,
		Backend:       objectstore.BackendGit,
		Repository:    ".",
		Concurrency:   4,
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, failure.New(failure.Configuration, "reading environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return failure.New(failure.Configuration, "invalid configuration", err)
	}
	return nil
}

// LoadKeyrings reads the keyring configuration file.
func (c Config) LoadKeyrings() ([]keyring.Keyring, error) {
	if err := ValidateFileExists("keyring configuration", c.KeyringConfig); err != nil {
		return nil, err
	}
	return keyring.LoadFile(c.KeyringConfig)
}

// StoreOptions returns the object store options for the configured
// repository.
func (c Config) StoreOptions() objectstore.Options {
	return objectstore.Options{Dir: c.Repository, GitPath: c.GitPath}
}
