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

// Package armor converts OpenPGP signature packets to and from ASCII armor
// (RFC 4880 section 6), including the CRC-24 checksum line.
package armor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sigstore/git-review/pkg/failure"
)

const (
	// SignatureType is the armor type tag of detached signatures.
	SignatureType = "PGP SIGNATURE"

	lineLength = 64
	beginFmt   = "-----BEGIN %s-----"
	endFmt     = "-----END %s-----"
)

// Block is a decoded armor block.
type Block struct {
	// Type is the tag between "-----BEGIN " and "-----".
	Type string
	// Headers holds the optional "Key: value" lines.
	Headers map[string]string
	// Bytes is the decoded payload.
	Bytes []byte
	// Checksum is the decoded CRC-24 line, or nil when the block has none.
	Checksum []byte
}

// VerifyChecksum compares the checksum line against the CRC-24 of Bytes.
// A block without a checksum line passes.
func (b *Block) VerifyChecksum() error {
	if b.Checksum == nil {
		return nil
	}
	sum := CRC24(b.Bytes)
	if !bytes.Equal(b.Checksum, sum[:]) {
		return failure.Newf(failure.Parse, "armor checksum mismatch: have %x, computed %x", b.Checksum, sum[:])
	}
	return nil
}

// Dearmor returns the binary payload of an armored block. The checksum line,
// if present, is stripped but not checked; use Decode and VerifyChecksum for
// that.
func Dearmor(text string) ([]byte, error) {
	b, err := Decode(text)
	if err != nil {
		return nil, err
	}
	return b.Bytes, nil
}

// Decode parses an armored block: a BEGIN line, an optional header block
// ending in a blank line, base64 lines, an optional "=" checksum line and an
// END line whose type matches the BEGIN line.
func Decode(text string) (*Block, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, failure.New(failure.Parse, "armor block is truncated", nil)
	}

	typ, ok := tag(lines[0], "-----BEGIN ")
	if !ok {
		return nil, failure.At(failure.Parse, "line 1", "missing armor BEGIN line", nil)
	}
	endType, ok := tag(lines[len(lines)-1], "-----END ")
	if !ok {
		return nil, failure.At(failure.Parse, fmt.Sprintf("line %d", len(lines)), "missing armor END line", nil)
	}
	if typ != endType {
		return nil, failure.Newf(failure.Parse, "armor BEGIN type %q does not match END type %q", typ, endType)
	}

	block := &Block{Type: typ, Headers: map[string]string{}}
	body := lines[1 : len(lines)-1]

	for i, l := range body {
		if l != "" {
			continue
		}
		for j, h := range body[:i] {
			k, v, found := strings.Cut(h, ":")
			if !found {
				return nil, failure.At(failure.Parse, fmt.Sprintf("line %d", j+2),
					"malformed armor header "+fmt.Sprintf("%q", h), nil)
			}
			block.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		body = body[i+1:]
		break
	}

	if n := len(body); n > 0 && strings.HasPrefix(body[n-1], "=") {
		sum, err := base64.StdEncoding.DecodeString(body[n-1][1:])
		if err != nil {
			return nil, failure.New(failure.Parse, "malformed armor checksum", err)
		}
		block.Checksum = sum
		body = body[:n-1]
	}

	data, err := base64.StdEncoding.DecodeString(strings.Join(body, ""))
	if err != nil {
		return nil, failure.New(failure.Parse, "malformed armor body", err)
	}
	block.Bytes = data
	return block, nil
}

// Enarmor encodes raw signature packets as a PGP SIGNATURE armor block with
// a CRC-24 checksum. Every line, including the last, ends in "\n".
func Enarmor(raw []byte) string {
	encoded := base64.StdEncoding.EncodeToString(raw)
	sum := CRC24(raw)

	var b strings.Builder
	b.Grow(len(encoded) + len(encoded)/lineLength + 80)
	fmt.Fprintf(&b, beginFmt+"\n\n", SignatureType)
	for len(encoded) > lineLength {
		b.WriteString(encoded[:lineLength])
		b.WriteByte('\n')
		encoded = encoded[lineLength:]
	}
	if encoded != "" {
		b.WriteString(encoded)
		b.WriteByte('\n')
	}
	b.WriteByte('=')
	b.WriteString(base64.StdEncoding.EncodeToString(sum[:]))
	b.WriteByte('\n')
	fmt.Fprintf(&b, endFmt+"\n", SignatureType)
	return b.String()
}

// splitLines splits on "\n", drops "\r" line endings and ignores leading and
// trailing empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSuffix(l, "\r"))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func tag(line, prefix string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, "-----") {
		return "", false
	}
	t := line[len(prefix) : len(line)-len("-----")]
	if t == "" {
		return "", false
	}
	return t, true
}
