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

// Package gitcli reads and writes commit objects with the git executable.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sigstore/git-review/internal/command"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/objectstore"
)

// DefaultGit is the git executable looked up on PATH.
const DefaultGit = "git"

var _ interfaces.ObjectStore = (*Store)(nil)

func init() {
	objectstore.MustRegister(objectstore.BackendGit, func(opts objectstore.Options) (interfaces.ObjectStore, error) {
		return New(opts.GitPath, opts.Dir), nil
	})
}

// Store runs git in Dir.
type Store struct {
	git string
	dir string

	mu     sync.Mutex
	format objectid.Format
}

// New returns a store using the given git executable (DefaultGit when
// empty) in dir (the working directory when empty).
func New(git, dir string) *Store {
	if git == "" {
		git = DefaultGit
	}
	return &Store{git: git, dir: dir}
}

// Resolve returns the full id of the commit rev names.
func (s *Store) Resolve(ctx context.Context, rev string) (string, error) {
	res, err := s.run(ctx, nil, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		// --quiet makes rev-parse exit 1 without output for unknown revisions.
		if res.ExitCode == 1 && len(bytes.TrimSpace(res.Stdout)) == 0 {
			return "", fmt.Errorf("%w: %s", objectstore.ErrNotFound, rev)
		}
		return "", err
	}
	return s.parseID(res.Stdout)
}

// Read returns the raw bytes of the commit rev resolves to.
func (s *Store) Read(ctx context.Context, rev string) ([]byte, error) {
	id, err := s.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}
	res, err := s.run(ctx, nil, "cat-file", "commit", id)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Write stores raw as a commit object, bypassing clean filters, and returns
// the id git assigned.
func (s *Store) Write(ctx context.Context, raw []byte) (string, error) {
	res, err := s.run(ctx, raw, "hash-object", "-t", "commit", "-w", "--stdin", "--no-filters")
	if err != nil {
		return "", err
	}
	return s.parseID(res.Stdout)
}

// ObjectFormat asks git for the repository's object format once and
// remembers the answer.
func (s *Store) ObjectFormat(ctx context.Context) (objectid.Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format != "" {
		return s.format, nil
	}

	res, err := s.run(ctx, nil, "rev-parse", "--show-object-format")
	if err != nil {
		return "", err
	}
	f, err := objectid.ParseFormat(strings.TrimSpace(string(res.Stdout)))
	if err != nil {
		return "", failure.At(failure.ExternalProcess, s.git, "unexpected object format", err)
	}
	s.format = f
	return f, nil
}

func (s *Store) parseID(out []byte) (string, error) {
	id, err := objectid.Parse(strings.TrimSpace(string(out)))
	if err != nil {
		return "", failure.At(failure.ExternalProcess, s.git, "unexpected object id", err)
	}
	return id.String(), nil
}

func (s *Store) run(ctx context.Context, stdin []byte, args ...string) (command.Result, error) {
	c := command.Cmd{Path: s.git, Args: args, Dir: s.dir, Stdin: stdin}
	if stdin == nil {
		c.Stdin = []byte{}
	}
	return command.Run(ctx, c)
}
