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

// Package verify combines the per-keyring verdicts on a commit's signatures
// into a single decision.
package verify

import (
	"time"

	"github.com/sigstore/git-review/pkg/keyring"
)

// SignatureResult is the outcome of checking one signature packet against
// one keyring.
type SignatureResult struct {
	// Valid is true when the verifier accepted the signature.
	Valid bool `json:"valid"`
	// MissingKey is true when the keyring holds no key for the signature.
	MissingKey bool `json:"missingKey"`
	// KeyID identifies the signing key (fingerprint when available).
	KeyID string `json:"keyId"`
	// Timestamp is the signature creation time, if reported.
	Timestamp *time.Time `json:"timestamp,omitempty"`
	// Expires is the signature expiry, reported for valid signatures only.
	Expires *time.Time `json:"expires,omitempty"`
}

// KeyringResults holds the results of one keyring, positionally aligned
// with the signature packets of the commit.
type KeyringResults struct {
	Keyring keyring.Keyring
	Results []SignatureResult
}

// KeyStatus is the aggregated verdict for one signing key.
type KeyStatus struct {
	KeyID      string     `json:"keyId"`
	Valid      bool       `json:"valid"`
	MissingKey bool       `json:"missingKey"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Expires    *time.Time `json:"expires,omitempty"`
	// Keyrings lists the keyrings that positively verified this key.
	Keyrings []keyring.Keyring `json:"keyrings"`
}

// Status is the aggregated verdict for a commit.
type Status struct {
	// Keys in the order their key ids were first seen.
	Keys []KeyStatus `json:"keys"`
	// Valid is false as soon as any known key produced an invalid signature.
	Valid bool `json:"valid"`
}

// Key returns the status of the given key id.
func (s Status) Key(id string) (KeyStatus, bool) {
	for _, k := range s.Keys {
		if k.KeyID == id {
			return k, true
		}
	}
	return KeyStatus{}, false
}

// Trusted returns the keys that at least one keyring vouched for.
func (s Status) Trusted() []KeyStatus {
	var out []KeyStatus
	for _, k := range s.Keys {
		if k.Valid && !k.MissingKey && len(k.Keyrings) > 0 {
			out = append(out, k)
		}
	}
	return out
}
