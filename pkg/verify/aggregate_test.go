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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/keyring"
)

var (
	krA = keyring.Keyring{ID: "a", Filename: "a.gpg"}
	krB = keyring.Keyring{ID: "b", Filename: "b.gpg"}
	krC = keyring.Keyring{ID: "c", Filename: "c.gpg"}
)

func valid(id string) SignatureResult {
	ts := time.Unix(1700000000, 0).UTC()
	return SignatureResult{Valid: true, KeyID: id, Timestamp: &ts}
}

func invalid(id string) SignatureResult {
	return SignatureResult{KeyID: id}
}

func missing(id string) SignatureResult {
	return SignatureResult{MissingKey: true, KeyID: id}
}

func permutations(in []KeyringResults) [][]KeyringResults {
	if len(in) <= 1 {
		return [][]KeyringResults{in}
	}
	var out [][]KeyringResults
	for i := range in {
		rest := make([]KeyringResults, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]KeyringResults{in[i]}, p...))
		}
	}
	return out
}

func TestAggregateStickyInvalid(t *testing.T) {
	input := []KeyringResults{
		{Keyring: krA, Results: []SignatureResult{valid("K1")}},
		{Keyring: krB, Results: []SignatureResult{invalid("K1")}},
		{Keyring: krC, Results: []SignatureResult{valid("K1")}},
	}

	for _, p := range permutations(input) {
		status, err := Aggregate(p)
		require.NoError(t, err)
		assert.False(t, status.Valid, "order %s,%s,%s", p[0].Keyring.ID, p[1].Keyring.ID, p[2].Keyring.ID)

		k, ok := status.Key("K1")
		require.True(t, ok)
		assert.False(t, k.Valid)
	}
}

func TestAggregateMissingKeyTransparency(t *testing.T) {
	t.Run("missing everywhere", func(t *testing.T) {
		status, err := Aggregate([]KeyringResults{
			{Keyring: krA, Results: []SignatureResult{valid("K1"), missing("K2")}},
			{Keyring: krB, Results: []SignatureResult{valid("K1"), missing("K2")}},
		})
		require.NoError(t, err)
		assert.True(t, status.Valid)

		k2, ok := status.Key("K2")
		require.True(t, ok)
		assert.True(t, k2.MissingKey)
		assert.Empty(t, k2.Keyrings)

		k1, _ := status.Key("K1")
		assert.Equal(t, []keyring.Keyring{krA, krB}, k1.Keyrings)
	})

	t.Run("missing alone", func(t *testing.T) {
		status, err := Aggregate([]KeyringResults{
			{Keyring: krA, Results: []SignatureResult{missing("K2")}},
			{Keyring: krB, Results: []SignatureResult{missing("K2")}},
		})
		require.NoError(t, err)
		assert.True(t, status.Valid)
	})

	t.Run("missing then known", func(t *testing.T) {
		for _, p := range permutations([]KeyringResults{
			{Keyring: krA, Results: []SignatureResult{missing("K1")}},
			{Keyring: krB, Results: []SignatureResult{valid("K1")}},
		}) {
			status, err := Aggregate(p)
			require.NoError(t, err)
			assert.True(t, status.Valid)

			k, _ := status.Key("K1")
			assert.False(t, k.MissingKey)
			assert.True(t, k.Valid)
			assert.Equal(t, []keyring.Keyring{krB}, k.Keyrings)
			require.NotNil(t, k.Timestamp)
		}
	})

	t.Run("missing then invalid", func(t *testing.T) {
		status, err := Aggregate([]KeyringResults{
			{Keyring: krA, Results: []SignatureResult{missing("K1")}},
			{Keyring: krB, Results: []SignatureResult{invalid("K1")}},
		})
		require.NoError(t, err)
		assert.False(t, status.Valid)

		k, _ := status.Key("K1")
		assert.False(t, k.MissingKey)
		assert.Empty(t, k.Keyrings)
	})
}

func TestAggregateMultipleKeys(t *testing.T) {
	status, err := Aggregate([]KeyringResults{
		{Keyring: krA, Results: []SignatureResult{valid("K1"), invalid("K2")}},
		{Keyring: krB, Results: []SignatureResult{valid("K1"), missing("K2")}},
	})
	require.NoError(t, err)
	assert.False(t, status.Valid)

	require.Len(t, status.Keys, 2)
	assert.Equal(t, "K1", status.Keys[0].KeyID)
	assert.Equal(t, "K2", status.Keys[1].KeyID)
	assert.True(t, status.Keys[0].Valid)
	assert.False(t, status.Keys[1].Valid)
}

func TestAggregateValidKeyAfterInvalidKeyStaysInvalid(t *testing.T) {
	status, err := Aggregate([]KeyringResults{
		{Keyring: krA, Results: []SignatureResult{invalid("K1"), valid("K2")}},
	})
	require.NoError(t, err)
	assert.False(t, status.Valid)
}

func TestAggregateCreditsKeyringOnce(t *testing.T) {
	status, err := Aggregate([]KeyringResults{
		{Keyring: krA, Results: []SignatureResult{valid("K1"), valid("K1")}},
	})
	require.NoError(t, err)
	k, _ := status.Key("K1")
	assert.Equal(t, []keyring.Keyring{krA}, k.Keyrings)
}

func TestAggregateNoSignatures(t *testing.T) {
	status, err := Aggregate([]KeyringResults{
		{Keyring: krA},
		{Keyring: krB},
	})
	require.NoError(t, err)
	assert.True(t, status.Valid)
	assert.Empty(t, status.Keys)

	status, err = Aggregate(nil)
	require.NoError(t, err)
	assert.True(t, status.Valid)
}

func TestAggregateSignatureCountMismatch(t *testing.T) {
	_, err := Aggregate([]KeyringResults{
		{Keyring: krA, Results: []SignatureResult{valid("K1"), valid("K2")}},
		{Keyring: krB, Results: []SignatureResult{valid("K1")}},
	})
	require.Error(t, err)
	assert.True(t, failure.IsType(err, failure.Consistency))
	assert.Contains(t, err.Error(), "keyrings disagree on signature count")
}

func TestPolicyEvaluate(t *testing.T) {
	good := Status{Valid: true, Keys: []KeyStatus{{KeyID: "K1", Valid: true, Keyrings: []keyring.Keyring{krA}}}}
	bad := Status{Valid: false, Keys: []KeyStatus{{KeyID: "K1"}}}
	unknown := Status{Valid: true, Keys: []KeyStatus{{KeyID: "K1", MissingKey: true}}}
	unsigned := Status{Valid: true}

	tests := []struct {
		name    string
		policy  Policy
		status  Status
		errType failure.ErrorType
	}{
		{name: "trusted", status: good},
		{name: "invalid", status: bad, errType: failure.SignatureInvalid},
		{name: "invalid even when unsigned allowed", policy: Policy{AllowUnsigned: true}, status: bad, errType: failure.SignatureInvalid},
		{name: "unknown keys", status: unknown, errType: failure.Unsigned},
		{name: "unsigned", status: unsigned, errType: failure.Unsigned},
		{name: "unsigned allowed", policy: Policy{AllowUnsigned: true}, status: unsigned},
		{name: "unknown allowed", policy: Policy{AllowUnsigned: true}, status: unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Evaluate(tt.status)
			if tt.errType == failure.Unknown {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, failure.IsType(err, tt.errType), "got %v", err)
		})
	}
}
