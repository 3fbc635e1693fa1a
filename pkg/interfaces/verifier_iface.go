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

	"github.com/sigstore/git-review/pkg/keyring"
)

type Verifier interface {
	// Verify checks an armored signature over payload against one keyring
	// and returns the raw status transcript. Rejected signatures are
	// reported in the transcript, not as an error.
	Verify(ctx context.Context, signature string, payload []byte, kr keyring.Keyring) (string, error)
}
