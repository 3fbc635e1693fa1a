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

package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/keyring"
	"github.com/sigstore/git-review/pkg/logging"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/objectstore/memory"
	"github.com/sigstore/git-review/pkg/verify"
)

const (
	fprAlice = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	fprBob   = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
)

const unsignedCommit = "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
	"author A U Thor <author@example.com> 1700000000 +0000\n" +
	"committer A U Thor <author@example.com> 1700000000 +0000\n" +
	"\n" +
	"Add feature\n"

const signedCommit = "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
	"author A U Thor <author@example.com> 1700000000 +0000\n" +
	"committer A U Thor <author@example.com> 1700000000 +0000\n" +
	"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
	" \n" +
	" iQEzBAABCAAdFiEE\n" +
	" =abcd\n" +
	" -----END PGP SIGNATURE-----\n" +
	"\n" +
	"Add feature\n"

var (
	krRelease  = keyring.Keyring{ID: "release", Filename: "release.gpg"}
	krSecurity = keyring.Keyring{ID: "security", Filename: "security.gpg"}
)

func validSig(fpr string) string {
	return "[GNUPG:] NEWSIG\n[GNUPG:] VALIDSIG " + fpr + " 2023-11-14 1700000000 0 4 0 22 10 00 " + fpr + "\n"
}

func missingSig(fpr string) string {
	return "[GNUPG:] NEWSIG\n[GNUPG:] ERRSIG 0123456789ABCDEF 22 10 00 1700000000 9 " + fpr + "\n"
}

func badSig(fpr string) string {
	return "[GNUPG:] NEWSIG\n[GNUPG:] BADSIG " + fpr + " someone\n"
}

// cannedVerifier answers with a fixed transcript per keyring id.
type cannedVerifier struct {
	mu         sync.Mutex
	transcript map[string]string
	err        map[string]error
	delay      map[string]time.Duration
	calls      []string
	signature  string
	payload    []byte
}

func (v *cannedVerifier) Verify(ctx context.Context, signature string, payload []byte, kr keyring.Keyring) (string, error) {
	if d := v.delay[kr.ID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	v.mu.Lock()
	v.calls = append(v.calls, kr.ID)
	v.signature = signature
	v.payload = payload
	v.mu.Unlock()

	if err := v.err[kr.ID]; err != nil {
		return "", err
	}
	return v.transcript[kr.ID], nil
}

func newReviewer(t *testing.T, raw string, v *cannedVerifier, keyrings ...keyring.Keyring) (*Reviewer, string) {
	t.Helper()
	store := memory.New()
	id := store.Add([]byte(raw))
	store.SetRef("HEAD", id)
	return &Reviewer{Store: store, Verifier: v, Keyrings: keyrings, Logger: logging.Discard()}, id
}

func TestReviewSignedCommit(t *testing.T) {
	v := &cannedVerifier{transcript: map[string]string{
		"release":  validSig(fprAlice),
		"security": validSig(fprAlice),
	}}
	r, id := newReviewer(t, signedCommit, v, krRelease, krSecurity)

	report, err := r.Review(context.Background(), "HEAD")
	require.NoError(t, err)

	assert.Equal(t, id, report.ID)
	assert.True(t, report.Signed)
	assert.Equal(t, "Add feature\n", report.Message)
	assert.True(t, report.Signatures.Valid)
	require.Len(t, report.Signatures.Keys, 1)
	assert.Equal(t, []keyring.Keyring{krRelease, krSecurity}, report.Signatures.Keys[0].Keyrings)
	assert.NoError(t, verify.Policy{}.Evaluate(report.Signatures))

	assert.Equal(t, unsignedCommit, string(v.payload))
	assert.True(t, strings.HasPrefix(v.signature, "-----BEGIN PGP SIGNATURE-----\n\niQEz"))
	assert.ElementsMatch(t, []string{"release", "security"}, v.calls)
}

func TestReviewUnsignedCommit(t *testing.T) {
	v := &cannedVerifier{}
	r, _ := newReviewer(t, unsignedCommit, v, krRelease, krSecurity)

	report, err := r.Review(context.Background(), "HEAD")
	require.NoError(t, err)

	assert.False(t, report.Signed)
	assert.Empty(t, v.calls, "unsigned commits are not sent to the verifier")
	assert.True(t, report.Signatures.Valid)
	assert.Empty(t, report.Signatures.Keys)
	require.Len(t, report.Keyrings, 2)

	err = verify.Policy{}.Evaluate(report.Signatures)
	assert.True(t, failure.IsType(err, failure.Unsigned))
	assert.NoError(t, verify.Policy{AllowUnsigned: true}.Evaluate(report.Signatures))
}

func TestReviewQuorum(t *testing.T) {
	tests := []struct {
		name     string
		release  string
		security string
		valid    bool
		trusted  int
	}{
		{"both vouch", validSig(fprAlice), validSig(fprAlice), true, 1},
		{"one keyring lacks the key", validSig(fprAlice), missingSig(fprAlice), true, 1},
		{"nobody knows the key", missingSig(fprAlice), missingSig(fprAlice), true, 0},
		{"one keyring rejects", validSig(fprAlice), badSig(fprAlice), false, 0},
		{"co-signed", validSig(fprAlice) + missingSig(fprBob), missingSig(fprAlice) + validSig(fprBob), true, 2},
		{"co-signed with a bad signature", validSig(fprAlice) + badSig(fprBob), missingSig(fprAlice) + validSig(fprBob), false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &cannedVerifier{transcript: map[string]string{"release": tt.release, "security": tt.security}}
			r, _ := newReviewer(t, signedCommit, v, krRelease, krSecurity)

			report, err := r.Review(context.Background(), "HEAD")
			require.NoError(t, err)
			assert.Equal(t, tt.valid, report.Signatures.Valid)
			assert.Len(t, report.Signatures.Trusted(), tt.trusted)
		})
	}
}

func TestReviewResultsFollowKeyringOrder(t *testing.T) {
	v := &cannedVerifier{
		transcript: map[string]string{"release": validSig(fprAlice), "security": missingSig(fprAlice)},
		delay:      map[string]time.Duration{"release": 50 * time.Millisecond},
	}
	r, _ := newReviewer(t, signedCommit, v, krRelease, krSecurity)

	report, err := r.Review(context.Background(), "HEAD")
	require.NoError(t, err)

	require.Len(t, report.Keyrings, 2)
	assert.Equal(t, "release", report.Keyrings[0].Keyring.ID)
	assert.True(t, report.Keyrings[0].Results[0].Valid)
	assert.Equal(t, "security", report.Keyrings[1].Keyring.ID)
	assert.True(t, report.Keyrings[1].Results[0].MissingKey)
}

func TestReviewErrors(t *testing.T) {
	t.Run("verifier fails", func(t *testing.T) {
		boom := errors.New("gpgv exploded")
		v := &cannedVerifier{
			transcript: map[string]string{"release": validSig(fprAlice)},
			err:        map[string]error{"security": boom},
		}
		r, _ := newReviewer(t, signedCommit, v, krRelease, krSecurity)
		_, err := r.Review(context.Background(), "HEAD")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "keyring security")
	})

	t.Run("malformed transcript", func(t *testing.T) {
		v := &cannedVerifier{transcript: map[string]string{"release": "[GNUPG:] NEWSIG\n"}}
		r, _ := newReviewer(t, signedCommit, v, krRelease)
		_, err := r.Review(context.Background(), "HEAD")
		assert.True(t, failure.IsType(err, failure.Parse), "got %v", err)
	})

	t.Run("keyrings disagree on signature count", func(t *testing.T) {
		v := &cannedVerifier{transcript: map[string]string{
			"release":  validSig(fprAlice) + validSig(fprBob),
			"security": validSig(fprAlice),
		}}
		r, _ := newReviewer(t, signedCommit, v, krRelease, krSecurity)
		_, err := r.Review(context.Background(), "HEAD")
		assert.True(t, failure.IsType(err, failure.Consistency), "got %v", err)
	})

	t.Run("malformed commit", func(t *testing.T) {
		r, _ := newReviewer(t, "tree abc", &cannedVerifier{}, krRelease)
		_, err := r.Review(context.Background(), "HEAD")
		assert.True(t, failure.IsType(err, failure.Parse), "got %v", err)
	})

	t.Run("unknown revision", func(t *testing.T) {
		r, _ := newReviewer(t, unsignedCommit, &cannedVerifier{}, krRelease)
		_, err := r.Review(context.Background(), "refs/heads/nope")
		assert.True(t, failure.IsType(err, failure.NotFound), "got %v", err)
	})
}

func TestReviewObjectDoesNotMutate(t *testing.T) {
	obj, err := commit.Parse([]byte(signedCommit))
	require.NoError(t, err)

	v := &cannedVerifier{transcript: map[string]string{"release": validSig(fprAlice)}}
	r := &Reviewer{Verifier: v, Keyrings: []keyring.Keyring{krRelease}}
	_, err = r.ReviewObject(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, signedCommit, string(obj.Reconstruct()))
}

func TestReviewUsesRepositoryObjectFormat(t *testing.T) {
	store := memory.NewWithFormat(objectid.SHA256)
	id := store.Add([]byte(unsignedCommit))
	store.SetRef("HEAD", id)
	r := &Reviewer{Store: store, Verifier: &cannedVerifier{}, Keyrings: []keyring.Keyring{krRelease}}

	report, err := r.Review(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Len(t, report.ID, objectid.SHA256.HexLen())
	assert.Equal(t, id, report.ID)
}

func TestReviewReportsTreeAndParents(t *testing.T) {
	raw := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
		"parent 1111111111111111111111111111111111111111\n" +
		"parent 2222222222222222222222222222222222222222\n" +
		"author A U Thor <author@example.com> 1700000000 +0000\n" +
		"committer A U Thor <author@example.com> 1700000000 +0000\n" +
		"\n" +
		"Merge\n"
	r, _ := newReviewer(t, raw, &cannedVerifier{}, krRelease)

	report, err := r.Review(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", report.Tree)
	assert.Equal(t, []string{
		"1111111111111111111111111111111111111111",
		"2222222222222222222222222222222222222222",
	}, report.Parents)
}
