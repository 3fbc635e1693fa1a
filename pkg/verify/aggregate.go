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
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/keyring"
)

// Aggregate folds the results of every keyring into one Status.
//
// All entries must report the same number of signatures; otherwise the
// results cannot be attributed and a failure.Consistency error is returned.
//
// Per key id the first result seen seeds the status. Results from keyrings
// that lack the key are ignored. An invalid result marks the key invalid for
// good. A key first seen as missing adopts the validity of the first keyring
// that knows it. Keyrings reporting a valid signature are credited.
//
// The overall verdict starts out valid and turns invalid for good once any
// key that some keyring knows is invalid. A commit without signatures, or
// whose keys no keyring knows, therefore comes out valid: use Policy to
// decide whether that is acceptable.
func Aggregate(in []KeyringResults) (Status, error) {
	for i := 1; i < len(in); i++ {
		if len(in[i].Results) != len(in[0].Results) {
			return Status{}, failure.At(failure.Consistency, in[i].Keyring.ID,
				"keyrings disagree on signature count", nil)
		}
	}

	var (
		order []string
		acc   = map[string]*KeyStatus{}
	)

	for _, kr := range in {
		for _, res := range kr.Results {
			ks, seen := acc[res.KeyID]
			if !seen {
				ks = &KeyStatus{
					KeyID:      res.KeyID,
					Valid:      res.Valid,
					MissingKey: res.MissingKey,
					Timestamp:  res.Timestamp,
					Expires:    res.Expires,
				}
				acc[res.KeyID] = ks
				order = append(order, res.KeyID)
			}

			if res.MissingKey {
				continue
			}
			if !res.Valid {
				ks.Valid = false
			}
			if ks.MissingKey {
				ks.MissingKey = false
				ks.Valid = res.Valid
				ks.Timestamp = res.Timestamp
				ks.Expires = res.Expires
			}
			if res.Valid {
				credit(ks, kr.Keyring)
			}
		}
	}

	status := Status{Valid: true, Keys: make([]KeyStatus, 0, len(order))}
	for _, id := range order {
		ks := acc[id]
		status.Keys = append(status.Keys, *ks)
		if ks.MissingKey {
			continue
		}
		if !ks.Valid {
			status.Valid = false
		}
	}
	return status, nil
}

func credit(ks *KeyStatus, kr keyring.Keyring) {
	for _, existing := range ks.Keyrings {
		if existing.ID == kr.ID {
			return
		}
	}
	ks.Keyrings = append(ks.Keyrings, kr)
}
