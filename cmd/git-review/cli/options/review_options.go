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

package options

import (
	"github.com/spf13/cobra"

	"github.com/sigstore/git-review/pkg/config"
	"github.com/sigstore/git-review/pkg/keyring"
)

// ReviewOptions holds the flags of the review command.
type ReviewOptions struct {
	RepositoryFlags
	FormatFlags
	Keyrings      string // --keyrings
	GPGV          string // --gpgv
	AllowUnsigned bool   // --allow-unsigned
	Concurrency   int    // --concurrency
}

var _ FlagAdder = (*ReviewOptions)(nil)

// AddFlags adds review flags to the cobra command.
func (o *ReviewOptions) AddFlags(cmd *cobra.Command) {
	def := config.Default()
	AddAllFlags(cmd, &o.RepositoryFlags, &o.FormatFlags)

	cmd.Flags().StringVarP(&o.Keyrings, "keyrings", "k", keyring.DefaultConfigFile, "Keyring configuration file (JSON or YAML).")
	_ = cmd.MarkFlagFilename("keyrings", "json", "yaml", "yml")
	cmd.Flags().StringVar(&o.GPGV, "gpgv", def.GPGVPath, "gpgv executable used to check signatures.")
	cmd.Flags().BoolVar(&o.AllowUnsigned, "allow-unsigned", false, "Accept commits no keyring vouches for.")
	cmd.Flags().IntVar(&o.Concurrency, "concurrency", def.Concurrency, "Number of keyrings checked in parallel.")
}

// Config returns the environment configuration overridden by the flags the
// user set.
func (o *ReviewOptions) Config(cmd *cobra.Command) (config.Config, error) {
	if err := o.FormatFlags.Validate(); err != nil {
		return config.Config{}, err
	}
	return loadConfig(func(cfg *config.Config) {
		o.RepositoryFlags.ApplyTo(cmd, cfg)
		if cmd.Flags().Changed("keyrings") {
			cfg.KeyringConfig = o.Keyrings
		}
		if cmd.Flags().Changed("gpgv") {
			cfg.GPGVPath = o.GPGV
		}
		if cmd.Flags().Changed("allow-unsigned") {
			cfg.AllowUnsigned = o.AllowUnsigned
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Concurrency = o.Concurrency
		}
	})
}
