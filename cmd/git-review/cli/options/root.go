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

// Package options defines the command-line options and flags for the
// git-review CLI.
package options

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/logging"
)

// RootOptions defines flags available to every subcommand.
type RootOptions struct {
	// OutputFile redirects command output to a file instead of stdout.
	OutputFile string
	// LogLevel sets the minimum log level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the log output format (text, json).
	LogFormat string
	// Timeout bounds a single command, including every git and gpg run.
	Timeout time.Duration
}

// DefaultTimeout specifies the default timeout duration for commands.
const DefaultTimeout = 3 * time.Minute

// ValidLogLevels lists the valid log level strings.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "silent"}

// ValidLogFormats lists the valid log format strings.
var ValidLogFormats = []string{"text", "json"}

var outputExts = []string{"txt", "log", "json"}

var _ FlagAdder = (*RootOptions)(nil)

func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// AddFlags adds the persistent root flags to cmd.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"write command output to a file")
	_ = cmd.MarkPersistentFlagFilename("output-file", outputExts...)

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent)")
	_ = cmd.RegisterFlagCompletionFunc("log-level", fixedCompletion(ValidLogLevels))

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json)")
	_ = cmd.RegisterFlagCompletionFunc("log-format", fixedCompletion(ValidLogFormats))

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", DefaultTimeout,
		"timeout for commands")
}

// NewLogger builds the logger selected by --log-level and --log-format.
func (o *RootOptions) NewLogger() (logging.Logger, error) {
	level, err := logging.ParseLogLevel(o.LogLevel)
	if err != nil {
		return nil, failure.New(failure.Configuration, "invalid --log-level", err)
	}
	format, err := logging.ParseLogFormat(o.LogFormat)
	if err != nil {
		return nil, failure.New(failure.Configuration, "invalid --log-format", err)
	}
	return logging.New(logging.Options{Level: level, Format: format}), nil
}
