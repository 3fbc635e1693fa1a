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
)

// SignOptions holds the flags of the sign command.
type SignOptions struct {
	RepositoryFlags
	FormatFlags
	GPG    string // --gpg
	DryRun bool   // --dry-run
}

var _ FlagAdder = (*SignOptions)(nil)

// AddFlags adds sign flags to the cobra command.
func (o *SignOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.RepositoryFlags, &o.FormatFlags)

	cmd.Flags().StringVar(&o.GPG, "gpg", config.Default().GPGPath, "gpg executable used to create the signature.")
	cmd.Flags().BoolVar(&o.DryRun, "dry-run", false, "Print the id of the signed commit without writing it.")
}

// Config returns the environment configuration overridden by the flags the
// user set.
func (o *SignOptions) Config(cmd *cobra.Command) (config.Config, error) {
	if err := o.FormatFlags.Validate(); err != nil {
		return config.Config{}, err
	}
	return loadConfig(func(cfg *config.Config) {
		o.RepositoryFlags.ApplyTo(cmd, cfg)
		if cmd.Flags().Changed("gpg") {
			cfg.GPGPath = o.GPG
		}
	})
}
