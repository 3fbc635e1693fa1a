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

package armor

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/sigstore/git-review/pkg/failure"
)

// PacketInfo describes one signature packet of a detached signature.
type PacketInfo struct {
	// KeyID is the 16 hex digit issuer key id, upper case, if present.
	KeyID string `json:"keyId,omitempty"`
	// Fingerprint is the issuer fingerprint, upper case hex, if present.
	Fingerprint string `json:"fingerprint,omitempty"`
	// Created is the signature creation time.
	Created time.Time `json:"created"`
}

// Issuer returns the most specific issuer identifier available.
func (p PacketInfo) Issuer() string {
	if p.Fingerprint != "" {
		return p.Fingerprint
	}
	return p.KeyID
}

// Inspect walks the OpenPGP packets in raw and describes each signature
// packet. Any other packet type, or a truncated stream, is an error: a
// detached signature blob holds nothing but signature packets.
func Inspect(raw []byte) ([]PacketInfo, error) {
	r := bytes.NewReader(raw)
	var infos []PacketInfo
	for {
		offset := int(r.Size()) - r.Len()
		p, err := packet.Read(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, failure.At(failure.Parse, failure.Offset(offset), "reading OpenPGP packet", err)
		}

		sig, ok := p.(*packet.Signature)
		if !ok {
			return nil, failure.At(failure.Parse, failure.Offset(offset),
				fmt.Sprintf("unexpected OpenPGP packet %T in detached signature", p), nil)
		}

		info := PacketInfo{Created: sig.CreationTime}
		if sig.IssuerKeyId != nil {
			info.KeyID = fmt.Sprintf("%016X", *sig.IssuerKeyId)
		}
		if len(sig.IssuerFingerprint) > 0 {
			info.Fingerprint = strings.ToUpper(hex.EncodeToString(sig.IssuerFingerprint))
		}
		infos = append(infos, info)
	}

	if len(infos) == 0 {
		return nil, failure.New(failure.Parse, "no signature packets found", nil)
	}
	return infos, nil
}
