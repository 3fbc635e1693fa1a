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

// Package gpgstatus parses the machine-readable status lines gpgv writes to
// its --status-fd into one verification result per signature.
//
// Only the directives that carry a per-signature verdict are considered:
//
//	[GNUPG:] NEWSIG [<signer-uid>]
//	[GNUPG:] VALIDSIG <fpr> <date> <timestamp> <expires> <ver> <rsv> <pkalgo> <hashalgo> <class> [<primary-fpr>]
//	[GNUPG:] ERRSIG <keyid> <pkalgo> <hashalgo> <class> <timestamp> <rc> [<fpr>]
//	[GNUPG:] BADSIG <long-keyid> <uid>
//
// Field positions are fixed by the GnuPG status protocol (doc/DETAILS).
package gpgstatus

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/verify"
)

const (
	// Prefix marks status lines.
	Prefix = "[GNUPG:] "

	NewSig   = "NEWSIG"
	ValidSig = "VALIDSIG"
	ErrSig   = "ERRSIG"
	BadSig   = "BADSIG"

	// RCNoPublicKey is the ERRSIG return code for "public key not found".
	RCNoPublicKey = "9"

	compactISO = "20060102T150405"
)

type directive struct {
	line   int
	fields []string
}

// ParseTranscript returns one result per VALIDSIG, ERRSIG or BADSIG line,
// in transcript order. Every signature must open with exactly one NEWSIG,
// so a transcript where NEWSIG lines are not exactly half of the relevant
// lines is rejected.
func ParseTranscript(text string) ([]verify.SignatureResult, error) {
	var (
		relevant []directive
		newsigs  int
	)

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, Prefix) {
			continue
		}
		fields := strings.Fields(line[len(Prefix):])
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case NewSig:
			newsigs++
		case ValidSig, ErrSig, BadSig:
		default:
			continue
		}
		relevant = append(relevant, directive{line: i + 1, fields: fields})
	}

	if newsigs*2 != len(relevant) {
		return nil, failure.Newf(failure.Parse,
			"unexpected result shape: %d NEWSIG lines for %d status lines", newsigs, len(relevant))
	}

	results := make([]verify.SignatureResult, 0, newsigs)
	for _, d := range relevant {
		var (
			res verify.SignatureResult
			err error
		)
		switch d.fields[0] {
		case NewSig:
			continue
		case ValidSig:
			res, err = parseValidSig(d.fields)
		case ErrSig:
			res, err = parseErrSig(d.fields)
		case BadSig:
			res, err = parseBadSig(d.fields)
		}
		if err != nil {
			return nil, failure.At(failure.Parse, fmt.Sprintf("transcript line %d", d.line),
				"malformed "+d.fields[0]+" line", err)
		}
		results = append(results, res)
	}
	return results, nil
}

func parseValidSig(f []string) (verify.SignatureResult, error) {
	if len(f) < 5 {
		return verify.SignatureResult{}, fmt.Errorf("expected at least 5 fields, got %d", len(f))
	}
	ts, err := ParseTimestamp(f[3])
	if err != nil {
		return verify.SignatureResult{}, err
	}
	exp, err := ParseTimestamp(f[4])
	if err != nil {
		return verify.SignatureResult{}, err
	}
	return verify.SignatureResult{
		Valid:     true,
		KeyID:     f[1],
		Timestamp: ts,
		Expires:   exp,
	}, nil
}

func parseErrSig(f []string) (verify.SignatureResult, error) {
	if len(f) < 7 {
		return verify.SignatureResult{}, fmt.Errorf("expected at least 7 fields, got %d", len(f))
	}
	ts, err := ParseTimestamp(f[5])
	if err != nil {
		return verify.SignatureResult{}, err
	}
	keyID := f[1]
	if len(f) > 7 && f[7] != "-" {
		keyID = f[7]
	}
	return verify.SignatureResult{
		MissingKey: f[6] == RCNoPublicKey,
		KeyID:      keyID,
		Timestamp:  ts,
	}, nil
}

func parseBadSig(f []string) (verify.SignatureResult, error) {
	if len(f) < 2 {
		return verify.SignatureResult{}, fmt.Errorf("expected a key id")
	}
	return verify.SignatureResult{KeyID: f[1]}, nil
}

// ParseTimestamp decodes a status-line timestamp. "0" means absent, digits
// are seconds since the epoch and anything containing "T" is ISO 8601.
func ParseTimestamp(s string) (*time.Time, error) {
	if s == "0" {
		return nil, nil
	}

	if isDigits(s) {
		secs, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, failure.New(failure.Parse, "timestamp out of range: "+s, err)
		}
		t := time.Unix(secs, 0).UTC()
		return &t, nil
	}

	if strings.Contains(s, "T") {
		for _, layout := range []string{time.RFC3339, compactISO} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t, nil
			}
		}
		return nil, failure.Newf(failure.Parse, "malformed ISO 8601 timestamp %q", s)
	}

	return nil, failure.Newf(failure.Parse, "unknown timestamp format %q", s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
