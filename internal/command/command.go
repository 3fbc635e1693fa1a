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

// Package command runs the external tools (git, gpg, gpgv) the adapters
// delegate to.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sigstore/git-review/pkg/failure"
)

// maxStderr bounds how much of a tool's stderr ends up in an error message.
const maxStderr = 4096

// Cmd describes one invocation.
type Cmd struct {
	Path  string
	Args  []string
	Dir   string
	Env   []string
	Stdin []byte
}

// Result is what a finished process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// String renders the command line for messages.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Run executes c and waits for it. A process that could not be started, was
// killed by ctx, or exited non-zero yields a failure.ExternalProcess error;
// the Result is returned in every case where the process ran so callers can
// still inspect its output.
func Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Result{}, failure.At(failure.ExternalProcess, c.String(), "cannot run command",
			errors.Wrapf(err, "starting %s", c.Path))
	}

	res.ExitCode = exitErr.ExitCode()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, failure.At(failure.ExternalProcess, c.String(), "command interrupted",
			errors.Wrap(ctxErr, c.Path))
	}
	return res, failure.At(failure.ExternalProcess, c.String(), ExitMessage(res),
		errors.Wrapf(err, "%s exited with code %d", c.Path, res.ExitCode))
}

// ExitMessage summarizes a failed result by its exit code and trimmed stderr.
func ExitMessage(res Result) string {
	msg := strings.TrimSpace(string(res.Stderr))
	if len(msg) > maxStderr {
		msg = msg[:maxStderr] + "..."
	}
	if msg == "" {
		return "exit code " + strconv.Itoa(res.ExitCode)
	}
	return "exit code " + strconv.Itoa(res.ExitCode) + ": " + msg
}
