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

// Package memory is an in-process object store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/objectstore"
)

var _ interfaces.ObjectStore = (*Store)(nil)

// minPrefix is the shortest abbreviated id Read accepts, as in git.
const minPrefix = 4

// maxRefDepth bounds symbolic ref chains.
const maxRefDepth = 5

// Store keeps commits keyed by their object id. Refs map a name to an
// object id or to another ref name.
type Store struct {
	mu      sync.RWMutex
	format  objectid.Format
	objects map[string][]byte
	refs    map[string]string
}

// New returns an empty store naming objects with SHA-1.
func New() *Store {
	return NewWithFormat(objectid.SHA1)
}

// NewWithFormat returns an empty store naming objects with f.
func NewWithFormat(f objectid.Format) *Store {
	return &Store{
		format:  f,
		objects: make(map[string][]byte),
		refs:    make(map[string]string),
	}
}

// Add stores raw and returns its id.
func (s *Store) Add(raw []byte) string {
	id := objectid.Compute(s.format, objectid.TypeCommit, raw).String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = append([]byte(nil), raw...)
	return id
}

// SetRef points name at target, an object id or another ref.
func (s *Store) SetRef(name, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[name] = target
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Read resolves rev as a ref, a full id or an unambiguous id prefix.
func (s *Store) Read(_ context.Context, rev string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.resolve(rev)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), s.objects[id]...), nil
}

// Write stores raw and returns its id.
func (s *Store) Write(_ context.Context, raw []byte) (string, error) {
	return s.Add(raw), nil
}

// ObjectFormat returns the format the store was created with.
func (s *Store) ObjectFormat(context.Context) (objectid.Format, error) {
	return s.format, nil
}

func (s *Store) resolve(rev string) (string, error) {
	name := rev
	for depth := 0; depth < maxRefDepth; depth++ {
		target, ok := s.refs[name]
		if !ok {
			break
		}
		name = target
	}

	if _, ok := s.objects[name]; ok {
		return name, nil
	}

	if len(name) >= minPrefix && len(name) < s.format.HexLen() {
		var match string
		for id := range s.objects {
			if !strings.HasPrefix(id, name) {
				continue
			}
			if match != "" {
				return "", fmt.Errorf("ambiguous revision %q", rev)
			}
			match = id
		}
		if match != "" {
			return match, nil
		}
	}

	return "", fmt.Errorf("%w: %s", objectstore.ErrNotFound, rev)
}
