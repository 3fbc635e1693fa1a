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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigstore/git-review/pkg/config"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/objectstore"
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RepositoryFlags select the repository and how its objects are accessed.
// They are shared by review and sign.
type RepositoryFlags struct {
	// Repository is a directory inside the repository.
	Repository string
	// Backend names the object store.
	Backend string
}

// AddFlags adds repository flags to the cobra command.
func (o *RepositoryFlags) AddFlags(cmd *cobra.Command) {
	def := config.Default()
	cmd.Flags().StringVarP(&o.Repository, "repo", "C", def.Repository, "Directory inside the repository to operate on.")
	_ = cmd.MarkFlagDirname("repo")
	cmd.Flags().StringVar(&o.Backend, "backend", def.Backend,
		fmt.Sprintf("Object store backend (%s, %s).", objectstore.BackendGit, objectstore.BackendGoGit))
}

// ApplyTo overrides cfg with the flags the user set explicitly.
func (o *RepositoryFlags) ApplyTo(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("repo") {
		cfg.Repository = o.Repository
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = o.Backend
	}
}

// FormatFlags choose how a command reports its result.
type FormatFlags struct {
	Format string
}

// AddFlags adds the output format flag to the cobra command.
func (o *FormatFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Format, "format", "o", FormatText, "Output format (text, json).")
}

// Validate rejects unknown formats.
func (o *FormatFlags) Validate() error {
	switch o.Format {
	case FormatText, FormatJSON:
		return nil
	default:
		return failure.Newf(failure.Configuration, "unknown output format %q", o.Format)
	}
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}

// loadConfig reads the environment configuration, lets apply override it
// and validates the result.
func loadConfig(apply func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
