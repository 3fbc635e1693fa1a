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

package verify

import (
	"strings"

	"github.com/sigstore/git-review/pkg/failure"
)

// Policy turns an aggregated Status into an accept/reject decision.
//
// Status.Valid only records the absence of invalid signatures. A commit
// nobody signed, or signed only by keys no keyring knows, is not proof of
// anything; Policy rejects it unless AllowUnsigned is set.
type Policy struct {
	// AllowUnsigned accepts commits without any keyring-verified signature.
	AllowUnsigned bool
}

// Evaluate returns nil when the status is acceptable, or a failure with
// type SignatureInvalid or Unsigned explaining the rejection.
func (p Policy) Evaluate(s Status) error {
	if !s.Valid {
		var bad []string
		for _, k := range s.Keys {
			if !k.MissingKey && !k.Valid {
				bad = append(bad, k.KeyID)
			}
		}
		return failure.Newf(failure.SignatureInvalid, "invalid signature from %s", strings.Join(bad, ", "))
	}
	if len(s.Trusted()) == 0 && !p.AllowUnsigned {
		if len(s.Keys) == 0 {
			return failure.Newf(failure.Unsigned, "commit is not signed")
		}
		return failure.Newf(failure.Unsigned, "no keyring holds a key for any of %d signature(s)", len(s.Keys))
	}
	return nil
}
