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

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sigstore/git-review/cmd/git-review/cli/options"
	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/review"
	"github.com/sigstore/git-review/pkg/signing"
	"github.com/sigstore/git-review/pkg/verify"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints the commit headers followed by the signature verdicts.
// The armored signature itself is summarized rather than printed.
func writeReport(w io.Writer, r review.Report, format string) error {
	if format == options.FormatJSON {
		return writeJSON(w, r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", r.ID)
	for _, h := range r.Headers {
		if h.Name == commit.SignatureHeader {
			continue
		}
		b.Write(commit.FoldHeader(h.Name, h.Value))
	}
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(r.Message, "\n"), "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	b.WriteString("\n")

	if !r.Signed {
		b.WriteString("signatures: none\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "signatures: %s\n", verdict(r.Signatures))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range r.Signatures.Keys {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", k.KeyID, keyState(k), formatTime(k.Timestamp), keyringIDs(k))
	}
	return tw.Flush()
}

func verdict(s verify.Status) string {
	switch {
	case !s.Valid:
		return "INVALID"
	case len(s.Trusted()) == 0:
		return "untrusted"
	default:
		return fmt.Sprintf("valid (%d trusted key(s))", len(s.Trusted()))
	}
}

func keyState(k verify.KeyStatus) string {
	switch {
	case k.MissingKey:
		return "unknown key"
	case !k.Valid:
		return "BAD"
	case k.Expires != nil:
		return "good, expires " + formatTime(k.Expires)
	default:
		return "good"
	}
}

func keyringIDs(k verify.KeyStatus) string {
	if len(k.Keyrings) == 0 {
		return "-"
	}
	ids := make([]string, len(k.Keyrings))
	for i, kr := range k.Keyrings {
		ids[i] = kr.ID
	}
	return strings.Join(ids, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func writeSignResult(w io.Writer, res signing.Result, format string) error {
	if format == options.FormatJSON {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintln(w, res.ID)
	return err
}
