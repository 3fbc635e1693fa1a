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

package signing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigstore/git-review/pkg/armor"
	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/logging"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/objectstore"
	"github.com/sigstore/git-review/pkg/objectstore/memory"
)

const unsignedCommit = "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
	"parent 9f0a4e1b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f\n" +
	"author A U Thor <author@example.com> 1700000000 +0000\n" +
	"committer A U Thor <author@example.com> 1700000000 +0000\n" +
	"\n" +
	"Add feature\n"

// pgpSigner signs with in-memory keys, the way gpg --detach-sign would.
type pgpSigner struct {
	keys     map[string]*openpgp.Entity
	payloads [][]byte
	output   []byte
	err      error
}

func newPGPSigner(t *testing.T, names ...string) *pgpSigner {
	t.Helper()
	s := &pgpSigner{keys: map[string]*openpgp.Entity{}}
	for _, n := range names {
		e, err := openpgp.NewEntity(n, "", n+"@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
		require.NoError(t, err)
		s.keys[n] = e
	}
	return s
}

func (s *pgpSigner) Sign(_ context.Context, payload []byte, identity string) ([]byte, error) {
	s.payloads = append(s.payloads, append([]byte(nil), payload...))
	if s.err != nil || s.output != nil {
		return s.output, s.err
	}
	e, ok := s.keys[identity]
	if !ok {
		return nil, fmt.Errorf("no secret key %q", identity)
	}
	var buf bytes.Buffer
	if err := openpgp.DetachSign(&buf, e, bytes.NewReader(payload), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkSignature(t *testing.T, e *openpgp.Entity, raw []byte) {
	t.Helper()
	obj, err := commit.Parse(raw)
	require.NoError(t, err)
	value, ok := obj.Signature()
	require.True(t, ok)
	packets, err := armor.Dearmor(value)
	require.NoError(t, err)

	signer, err := openpgp.CheckDetachedSignature(openpgp.EntityList{e}, bytes.NewReader(obj.SignablePayload()), bytes.NewReader(packets), nil)
	require.NoError(t, err)
	assert.Equal(t, e.PrimaryKey.KeyId, signer.PrimaryKey.KeyId)
}

func TestSignUnsignedCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	src := store.Add([]byte(unsignedCommit))
	store.SetRef("HEAD", src)
	signer := newPGPSigner(t, "alice")

	cs := &CommitSigner{Store: store, Signer: signer, Logger: logging.Discard()}
	res, err := cs.Sign(ctx, "HEAD", "alice")
	require.NoError(t, err)

	assert.True(t, res.Written)
	assert.Equal(t, src, res.Source)
	assert.Equal(t, 1, res.Signatures)
	require.Len(t, res.Signers, 1)
	assert.Equal(t, fmt.Sprintf("%016X", signer.keys["alice"].PrimaryKey.KeyId), res.Signers[0].KeyID)
	assert.Equal(t, objectid.Compute(objectid.SHA1, objectid.TypeCommit, res.Commit).String(), res.ID)

	require.Len(t, signer.payloads, 1)
	assert.Equal(t, unsignedCommit, string(signer.payloads[0]))

	stored, err := store.Read(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Commit, stored)

	signed, err := commit.Parse(stored)
	require.NoError(t, err)
	assert.Equal(t, unsignedCommit, string(signed.SignablePayload()))
	assert.True(t, strings.HasPrefix(string(stored), "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\nparent "))
	assert.Contains(t, string(stored), "+0000\ngpgsig -----BEGIN PGP SIGNATURE-----\n \n ")
	assert.True(t, strings.HasSuffix(string(stored), " -----END PGP SIGNATURE-----\n\nAdd feature\n"))

	checkSignature(t, signer.keys["alice"], stored)
}

func TestCoSignKeepsExistingSignature(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	src := store.Add([]byte(unsignedCommit))
	signer := newPGPSigner(t, "alice", "bob")
	cs := &CommitSigner{Store: store, Signer: signer}

	first, err := cs.Sign(ctx, src, "alice")
	require.NoError(t, err)
	second, err := cs.Sign(ctx, first.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, 2, second.Signatures)
	assert.Equal(t, first.ID, second.Source)
	require.Len(t, signer.payloads, 2)
	assert.Equal(t, signer.payloads[0], signer.payloads[1], "both parties sign the same payload")

	firstObj, err := commit.Parse(first.Commit)
	require.NoError(t, err)
	firstValue, _ := firstObj.Signature()
	firstPackets, err := armor.Dearmor(firstValue)
	require.NoError(t, err)

	secondObj, err := commit.Parse(second.Commit)
	require.NoError(t, err)
	secondValue, _ := secondObj.Signature()
	secondPackets, err := armor.Dearmor(secondValue)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(secondPackets, firstPackets))

	checkSignature(t, signer.keys["alice"], second.Commit)
	checkSignature(t, signer.keys["bob"], second.Commit)
}

func TestSignDryRun(t *testing.T) {
	store := memory.New()
	src := store.Add([]byte(unsignedCommit))

	cs := &CommitSigner{Store: store, Signer: newPGPSigner(t, "alice"), DryRun: true}
	res, err := cs.Sign(context.Background(), src, "alice")
	require.NoError(t, err)

	assert.False(t, res.Written)
	assert.Equal(t, objectid.Compute(objectid.SHA1, objectid.TypeCommit, res.Commit).String(), res.ID)
	assert.Equal(t, 1, store.Len())
}

func TestSignUsesRepositoryObjectFormat(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWithFormat(objectid.SHA256)
	src := store.Add([]byte(unsignedCommit))
	require.Len(t, src, objectid.SHA256.HexLen())

	cs := &CommitSigner{Store: store, Signer: newPGPSigner(t, "alice"), DryRun: true}
	res, err := cs.Sign(ctx, src, "alice")
	require.NoError(t, err)
	assert.Equal(t, src, res.Source)
	assert.Equal(t, objectid.Compute(objectid.SHA256, objectid.TypeCommit, res.Commit).String(), res.ID)

	cs.DryRun = false
	written, err := cs.Sign(ctx, src, "alice")
	require.NoError(t, err)
	assert.True(t, written.Written)
	assert.Len(t, written.ID, objectid.SHA256.HexLen())

	stored, err := store.Read(ctx, written.ID)
	require.NoError(t, err)
	assert.Equal(t, written.Commit, stored)
}

// misnamingStore reports a different object format than it writes with.
type misnamingStore struct {
	*memory.Store
}

func (misnamingStore) ObjectFormat(context.Context) (objectid.Format, error) {
	return objectid.SHA256, nil
}

func TestSignRejectsMismatchedStoreID(t *testing.T) {
	store := memory.New()
	src := store.Add([]byte(unsignedCommit))

	cs := &CommitSigner{Store: misnamingStore{store}, Signer: newPGPSigner(t, "alice")}
	_, err := cs.Sign(context.Background(), src, "alice")
	require.Error(t, err)
	assert.True(t, failure.IsType(err, failure.Consistency), "got %v", err)
}

func TestSignErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown revision", func(t *testing.T) {
		cs := &CommitSigner{Store: memory.New(), Signer: newPGPSigner(t)}
		_, err := cs.Sign(ctx, "HEAD", "alice")
		assert.ErrorIs(t, err, objectstore.ErrNotFound)
	})

	t.Run("malformed commit", func(t *testing.T) {
		store := memory.New()
		id := store.Add([]byte("tree abc\nno blank line"))
		cs := &CommitSigner{Store: store, Signer: newPGPSigner(t)}
		_, err := cs.Sign(ctx, id, "alice")
		assert.True(t, failure.IsType(err, failure.Parse), "got %v", err)
	})

	t.Run("signer fails", func(t *testing.T) {
		store := memory.New()
		id := store.Add([]byte(unsignedCommit))
		signer := newPGPSigner(t)
		signer.err = errors.New("no secret key")
		cs := &CommitSigner{Store: store, Signer: signer}
		_, err := cs.Sign(ctx, id, "alice")
		assert.ErrorContains(t, err, "no secret key")
		assert.Equal(t, 1, store.Len())
	})

	t.Run("signer returns garbage", func(t *testing.T) {
		store := memory.New()
		id := store.Add([]byte(unsignedCommit))
		signer := newPGPSigner(t)
		signer.output = []byte("-----BEGIN PGP SIGNATURE-----")
		cs := &CommitSigner{Store: store, Signer: signer}
		_, err := cs.Sign(ctx, id, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signer output")
		assert.Equal(t, 1, store.Len())
	})
}

func TestMergeSignature(t *testing.T) {
	unsigned, err := commit.Parse([]byte(unsignedCommit))
	require.NoError(t, err)

	t.Run("unsigned commit gets a fresh block", func(t *testing.T) {
		value, err := MergeSignature(unsigned, []byte{0x01, 0x02, 0x03})
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSuffix(armor.Enarmor([]byte{0x01, 0x02, 0x03}), "\n"), value)
		assert.False(t, strings.HasSuffix(value, "\n"))
	})

	t.Run("existing packets come first", func(t *testing.T) {
		signed := commit.SpliceSignature(unsigned, strings.TrimSuffix(armor.Enarmor([]byte("AAA")), "\n"))
		obj, err := commit.Parse(signed)
		require.NoError(t, err)

		value, err := MergeSignature(obj, []byte("BBB"))
		require.NoError(t, err)
		packets, err := armor.Dearmor(value)
		require.NoError(t, err)
		assert.Equal(t, "AAABBB", string(packets))
	})

	t.Run("existing block fails its checksum", func(t *testing.T) {
		good := strings.TrimSuffix(armor.Enarmor([]byte("AAA")), "\n")
		lines := strings.Split(good, "\n")
		for i, l := range lines {
			if strings.HasPrefix(l, "=") {
				sum := armor.CRC24([]byte("AAB"))
				lines[i] = "=" + base64.StdEncoding.EncodeToString(sum[:])
			}
		}
		obj, err := commit.Parse(commit.SpliceSignature(unsigned, strings.Join(lines, "\n")))
		require.NoError(t, err)

		_, err = MergeSignature(obj, []byte("BBB"))
		require.Error(t, err)
		assert.True(t, failure.IsType(err, failure.Parse))
		assert.Contains(t, err.Error(), "corrupted")
	})

	t.Run("existing signature is not armor", func(t *testing.T) {
		obj, err := commit.Parse(commit.SpliceSignature(unsigned, "not armor"))
		require.NoError(t, err)
		_, err = MergeSignature(obj, []byte("BBB"))
		assert.True(t, failure.IsType(err, failure.Parse))
	})

	t.Run("empty new signature", func(t *testing.T) {
		_, err := MergeSignature(unsigned, nil)
		assert.Error(t, err)
	})
}
