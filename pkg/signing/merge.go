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

// Package signing adds signatures to commits. A commit signed by several
// parties carries one armor block holding all of their signature packets.
package signing

import (
	"strings"

	"github.com/sigstore/git-review/pkg/armor"
	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/failure"
)

// MergeSignature combines the commit's existing signature, if any, with the
// new binary signature packets in raw. The result is a single armor block in
// header value form (no trailing newline), ready for SetSignature or
// commit.SpliceSignature.
//
// Existing packets come first; their bytes are kept as they are. An existing
// block whose checksum line does not match its payload is rejected.
func MergeSignature(o *commit.Object, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", failure.New(failure.Parse, "new signature is empty", nil)
	}

	existing, ok := o.Signature()
	if !ok {
		return headerValue(armor.Enarmor(raw)), nil
	}

	block, err := armor.Decode(existing)
	if err != nil {
		return "", failure.New(failure.Parse, "existing gpgsig header is not valid armor", err)
	}
	// Re-armoring writes a fresh checksum, so a corrupted block must be
	// caught here.
	if err := block.VerifyChecksum(); err != nil {
		return "", failure.New(failure.Parse, "existing gpgsig header is corrupted", err)
	}

	merged := make([]byte, 0, len(block.Bytes)+len(raw))
	merged = append(merged, block.Bytes...)
	merged = append(merged, raw...)
	return headerValue(armor.Enarmor(merged)), nil
}

func headerValue(armored string) string {
	return strings.TrimSuffix(armored, "\n")
}
