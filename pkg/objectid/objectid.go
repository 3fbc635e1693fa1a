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

// Package objectid computes git object names.
//
// A git object is named by the hash of "<type> <size>\x00<content>". The
// repository's object format decides the hash: SHA-1 by default, SHA-256
// for repositories created with --object-format=sha256.
package objectid

import (
	"crypto/sha1" //nolint:gosec // git object names are SHA-1 by definition
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
)

// Object types.
const (
	TypeCommit = "commit"
	TypeBlob   = "blob"
	TypeTree   = "tree"
	TypeTag    = "tag"
)

// Format is a repository object format.
type Format string

const (
	SHA1   Format = "sha1"
	SHA256 Format = "sha256"
)

// ParseFormat accepts the values of git's extensions.objectFormat. An empty
// string selects SHA-1.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", string(SHA1):
		return SHA1, nil
	case string(SHA256):
		return SHA256, nil
	default:
		return "", fmt.Errorf("unknown object format %q", s)
	}
}

func (f Format) newHash() hash.Hash {
	if f == SHA256 {
		return sha256.New()
	}
	return sha1.New() //nolint:gosec
}

// HexLen is the length of an object name in this format.
func (f Format) HexLen() int {
	return f.newHash().Size() * 2
}

// ID is a git object name. The zero value is not a valid ID.
type ID struct {
	format Format
	value  []byte
}

// Compute names content of the given object type.
func Compute(f Format, objType string, content []byte) ID {
	h := f.newHash()
	h.Write([]byte(objType + " " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return ID{format: f, value: h.Sum(nil)}
}

// Parse decodes a full hex object name, inferring the format from its length.
func Parse(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	switch len(b) {
	case sha1.Size:
		return ID{format: SHA1, value: b}, nil
	case sha256.Size:
		return ID{format: SHA256, value: b}, nil
	default:
		return ID{}, fmt.Errorf("invalid object id %q: unexpected length %d", s, len(s))
	}
}

// Format returns the object format the id belongs to.
func (id ID) Format() Format {
	return id.format
}

// Bytes returns a copy of the raw hash.
func (id ID) Bytes() []byte {
	out := make([]byte, len(id.value))
	copy(out, id.value)
	return out
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return len(id.value) == 0
}

// String returns the lowercase hex form git prints.
func (id ID) String() string {
	return hex.EncodeToString(id.value)
}

// Equal compares format and value.
func (id ID) Equal(other ID) bool {
	return id.format == other.format && id.String() == other.String()
}
