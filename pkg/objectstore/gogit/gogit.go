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

// Package gogit reads and writes commit objects through go-git, without
// needing a git executable.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/objectstore"
)

var _ interfaces.ObjectStore = (*Store)(nil)

func init() {
	objectstore.MustRegister(objectstore.BackendGoGit, func(opts objectstore.Options) (interfaces.ObjectStore, error) {
		return Open(opts.Dir)
	})
}

// Store wraps an opened repository.
type Store struct {
	repo *git.Repository
}

// New wraps an already opened repository.
func New(repo *git.Repository) *Store {
	return &Store{repo: repo}
}

// Open opens the repository containing dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, failure.New(failure.Configuration, "cannot open repository at "+dir, err)
	}
	return New(repo), nil
}

// Read returns the raw bytes of the commit rev resolves to.
func (s *Store) Read(ctx context.Context, rev string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", objectstore.ErrNotFound, rev)
		}
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}

	obj, err := s.repo.Storer.EncodedObject(plumbing.CommitObject, *h)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", objectstore.ErrNotFound, h)
		}
		return nil, fmt.Errorf("loading %s: %w", h, err)
	}

	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Write stores raw as a commit object and returns its id.
func (s *Store) Write(ctx context.Context, raw []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	obj.SetSize(int64(len(raw)))

	w, err := obj.Writer()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}
	return h.String(), nil
}

// ObjectFormat reports the hash go-git was built with. go-git selects it at
// compile time, so every repository it opens uses the same format.
func (s *Store) ObjectFormat(context.Context) (objectid.Format, error) {
	id, err := objectid.Parse(plumbing.ZeroHash.String())
	if err != nil {
		return "", err
	}
	return id.Format(), nil
}

func notFound(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound)
}
