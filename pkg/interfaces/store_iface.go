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

package interfaces

import (
	"context"

	"github.com/sigstore/git-review/pkg/objectid"
)

type ObjectStore interface {
	// Read returns the raw bytes of the commit rev resolves to.
	Read(ctx context.Context, rev string) ([]byte, error)

	// Write stores raw commit bytes and returns the new object id.
	Write(ctx context.Context, raw []byte) (string, error)

	// ObjectFormat reports the hash the repository names objects with.
	ObjectFormat(ctx context.Context) (objectid.Format, error)
}
