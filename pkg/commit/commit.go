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

// Package commit models a raw git commit object byte for byte.
//
// A commit is a list of "name value" header lines, where a line starting
// with a single space continues the previous header, followed by a blank
// line and the free-form message. The package records the exact span of the
// embedded gpgsig header so the signature can be cut out (yielding the bytes
// that were signed) or replaced without disturbing any other byte.
package commit

import (
	"bytes"
	"strings"

	"github.com/sigstore/git-review/pkg/failure"
)

// SignatureHeader is the name of the header holding the armored signature.
const SignatureHeader = "gpgsig"

// Header is a single commit header. Value holds continuation lines joined
// with "\n" and with their leading space removed.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Range is a half-open byte range [Start, End) into the raw commit.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Object is a parsed commit.
type Object struct {
	// Headers in the order they appear in the raw object.
	Headers []Header `json:"headers"`
	// Message is everything after the blank line ending the headers.
	Message []byte `json:"message"`
	// SignatureRange spans the whole gpgsig header (name, folded value and
	// the newline ending its last line). When the commit is unsigned the
	// range is empty and positioned at the blank line, where a new
	// signature header is inserted.
	SignatureRange Range `json:"signatureRange"`

	raw    []byte
	sigIdx int // index into Headers of gpgsig, or where it would go
}

// Parse parses a raw commit object. It never partially recovers: any
// structural problem returns a failure.Parse error naming the byte offset.
func Parse(raw []byte) (*Object, error) {
	obj := &Object{
		raw:    append([]byte(nil), raw...),
		sigIdx: -1,
	}

	var (
		current  = -1 // header receiving continuation lines
		sigStart = -1
		sigEnd   = -1
		pos      = 0
	)

	for {
		if pos >= len(raw) {
			return nil, failure.At(failure.Parse, failure.Offset(pos),
				"commit headers are not terminated by a blank line", nil)
		}

		var line []byte
		next := len(raw)
		if nl := bytes.IndexByte(raw[pos:], '\n'); nl >= 0 {
			line = raw[pos : pos+nl]
			next = pos + nl + 1
		} else {
			line = raw[pos:]
		}

		if len(line) == 0 {
			if sigStart >= 0 && sigEnd < 0 {
				sigEnd = pos
			}
			obj.Message = append([]byte(nil), raw[next:]...)
			if sigStart < 0 {
				sigStart, sigEnd = pos, pos
				obj.sigIdx = len(obj.Headers)
			}
			break
		}

		if raw[next-1] != '\n' {
			return nil, failure.At(failure.Parse, failure.Offset(pos),
				"commit headers are not terminated by a blank line", nil)
		}

		if line[0] == ' ' {
			if current < 0 {
				return nil, failure.At(failure.Parse, failure.Offset(pos),
					"continuation without header", nil)
			}
			obj.Headers[current].Value += "\n" + string(line[1:])
			pos = next
			continue
		}

		sp := bytes.IndexByte(line, ' ')
		if sp <= 0 {
			return nil, failure.At(failure.Parse, failure.Offset(pos),
				"malformed header line "+quoteLine(line), nil)
		}
		name := string(line[:sp])

		if sigStart >= 0 && sigEnd < 0 {
			sigEnd = pos
		}
		if name == SignatureHeader {
			if sigStart >= 0 {
				return nil, failure.At(failure.Parse, failure.Offset(pos),
					"duplicate "+SignatureHeader+" header", nil)
			}
			sigStart = pos
			obj.sigIdx = len(obj.Headers)
		}

		obj.Headers = append(obj.Headers, Header{Name: name, Value: string(line[sp+1:])})
		current = len(obj.Headers) - 1
		pos = next
	}

	obj.SignatureRange = Range{Start: sigStart, End: sigEnd}
	return obj, nil
}

func quoteLine(line []byte) string {
	const max = 40
	if len(line) > max {
		return strings.TrimSpace(string(line[:max])) + "..."
	}
	return string(line)
}

// Raw returns a copy of the bytes the object was parsed from.
func (o *Object) Raw() []byte {
	return append([]byte(nil), o.raw...)
}

// Header returns the value of the first header with the given name.
func (o *Object) Header(name string) (string, bool) {
	for _, h := range o.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// Values returns the values of all headers with the given name, in order.
func (o *Object) Values(name string) []string {
	var out []string
	for _, h := range o.Headers {
		if h.Name == name {
			out = append(out, h.Value)
		}
	}
	return out
}

// Signature returns the current gpgsig header value.
func (o *Object) Signature() (string, bool) {
	if o.sigIdx < 0 || o.sigIdx >= len(o.Headers) || o.Headers[o.sigIdx].Name != SignatureHeader {
		return "", false
	}
	return o.Headers[o.sigIdx].Value, true
}

// HasSignature reports whether the object carries a gpgsig header.
func (o *Object) HasSignature() bool {
	_, ok := o.Signature()
	return ok
}

// SetSignature replaces the gpgsig header value, adding the header at the
// recorded signature position if the commit was unsigned. An empty value
// removes the header. The raw bytes and SignatureRange are left untouched;
// Reconstruct applies the new value.
func (o *Object) SetSignature(value string) {
	_, signed := o.Signature()
	switch {
	case value == "" && signed:
		o.Headers = append(o.Headers[:o.sigIdx], o.Headers[o.sigIdx+1:]...)
		return
	case value == "":
		return
	case signed:
		o.Headers[o.sigIdx].Value = value
		return
	}
	h := Header{Name: SignatureHeader, Value: value}
	o.Headers = append(o.Headers, Header{})
	copy(o.Headers[o.sigIdx+1:], o.Headers[o.sigIdx:])
	o.Headers[o.sigIdx] = h
}

// SignablePayload returns the raw commit with the gpgsig header removed.
// These are the bytes an existing signature covers and a new one must cover.
func (o *Object) SignablePayload() []byte {
	r := o.SignatureRange
	out := make([]byte, 0, len(o.raw)-r.Len())
	out = append(out, o.raw[:r.Start]...)
	return append(out, o.raw[r.End:]...)
}

// Reconstruct returns the commit bytes with the current signature value
// spliced back in. For an unmodified object this equals the parsed input.
func (o *Object) Reconstruct() []byte {
	sig, _ := o.Signature()
	return SpliceSignature(o, sig)
}

// SpliceSignature inserts a gpgsig header holding value into the signable
// payload of o at SignatureRange.Start, folding every line after the first
// into a continuation line. An empty value yields the payload unchanged.
func SpliceSignature(o *Object, value string) []byte {
	payload := o.SignablePayload()
	if value == "" {
		return payload
	}
	return splice(payload, o.SignatureRange.Start, FoldHeader(SignatureHeader, value))
}

func splice(payload []byte, at int, header []byte) []byte {
	out := make([]byte, 0, len(payload)+len(header))
	out = append(out, payload[:at]...)
	out = append(out, header...)
	return append(out, payload[at:]...)
}

// FoldHeader renders a header line, prefixing each continuation line with a
// single space and terminating the last line with "\n".
func FoldHeader(name, value string) []byte {
	var b bytes.Buffer
	b.Grow(len(name) + len(value) + strings.Count(value, "\n") + 2)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strings.ReplaceAll(value, "\n", "\n "))
	b.WriteByte('\n')
	return b.Bytes()
}
