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

// Package objectstore holds what the object store backends share.
//
// The gitcli and gogit subpackages register themselves with Open on import.
// The memory subpackage is constructed directly by callers that hold
// objects in process.
package objectstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/interfaces"
)

// Registered backend names.
const (
	BackendGit   = "git"
	BackendGoGit = "go-git"
)

// ErrNotFound is wrapped by every backend when a revision does not resolve
// to a commit.
var ErrNotFound = failure.New(failure.NotFound, "object not found", nil)

// Options locate the repository a store operates on.
type Options struct {
	// Dir is any directory inside the repository work tree.
	Dir string
	// GitPath is the git executable, for backends that need it.
	GitPath string
}

// Factory creates a store for the given options.
type Factory func(opts Options) (interfaces.ObjectStore, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register makes a backend available to Open under name.
func Register(name string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if name == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	if _, exists := registry[name]; exists {
		return fmt.Errorf("object store backend %q already registered", name)
	}

	registry[name] = factory
	return nil
}

// MustRegister registers a backend or panics. Backends call it from init.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register object store %q: %v", name, err))
	}
}

// Open creates a store using the named backend.
func Open(name string, opts Options) (interfaces.ObjectStore, error) {
	mu.RLock()
	factory, exists := registry[name]
	mu.RUnlock()

	if !exists {
		return nil, failure.Newf(failure.Configuration,
			"unknown object store backend %q (supported: %v)", name, Backends())
	}

	store, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s object store: %w", name, err)
	}
	return store, nil
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
