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

// Package keyring loads the set of trust stores a commit is reviewed
// against. A configuration file maps keyring ids to an object holding at
// least a "filename" plus any metadata the operator wants to carry along.
//
//	{
//	  "release": {"filename": "/etc/keys/release.gpg", "owner": "release team"},
//	  "security": {"filename": "/etc/keys/security.gpg"}
//	}
package keyring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/sigstore/git-review/pkg/failure"
)

// DefaultConfigFile is the keyring configuration read when none is given.
const DefaultConfigFile = "keyrings.json"

var validate = validator.New()

// Keyring is an opaque handle to a trust store. Only the verifier
// interprets Filename; Metadata is carried through to the report.
type Keyring struct {
	ID       string                 `json:"id" validate:"required"`
	Filename string                 `json:"filename" validate:"required"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// LoadFile reads a keyring configuration file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON. Keyrings are returned sorted
// by id so that every run checks them in the same order.
func LoadFile(path string) ([]Keyring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.At(failure.Configuration, path, "reading keyring configuration", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a JSON keyring configuration.
func ParseJSON(data []byte) ([]Keyring, error) {
	var entries map[string]map[string]interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, failure.New(failure.Configuration, "parsing keyring configuration", err)
	}
	return build(entries)
}

// ParseYAML parses a YAML keyring configuration.
func ParseYAML(data []byte) ([]Keyring, error) {
	var raw map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, failure.New(failure.Configuration, "parsing keyring configuration", err)
	}
	for _, entry := range raw {
		for k, v := range entry {
			entry[k] = stringKeys(v)
		}
	}
	return build(raw)
}

// stringKeys converts the map[interface{}]interface{} values yaml.v2
// produces so that metadata can be encoded as JSON.
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case []interface{}:
		for i, e := range t {
			t[i] = stringKeys(e)
		}
		return t
	default:
		return v
	}
}

func build(entries map[string]map[string]interface{}) ([]Keyring, error) {
	if len(entries) == 0 {
		return nil, failure.New(failure.Configuration, "keyring configuration lists no keyrings", nil)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	keyrings := make([]Keyring, 0, len(ids))
	for _, id := range ids {
		kr := Keyring{ID: id}
		for k, v := range entries[id] {
			if k == "filename" {
				s, ok := v.(string)
				if !ok {
					return nil, failure.At(failure.Configuration, id, "filename must be a string", nil)
				}
				kr.Filename = s
				continue
			}
			if kr.Metadata == nil {
				kr.Metadata = map[string]interface{}{}
			}
			kr.Metadata[k] = v
		}
		if err := validate.Struct(kr); err != nil {
			return nil, failure.At(failure.Configuration, id, "invalid keyring entry", err)
		}
		keyrings = append(keyrings, kr)
	}
	return keyrings, nil
}

// String returns the keyring id and file.
func (k Keyring) String() string {
	return fmt.Sprintf("%s (%s)", k.ID, k.Filename)
}
