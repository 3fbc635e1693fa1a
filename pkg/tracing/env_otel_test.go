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

//go:build otel

package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestExportRequested(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want bool
	}{
		{"nothing set", nil, false},
		{"endpoint", map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318"}, true},
		{"traces endpoint", map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://collector:4318/v1/traces"}, true},
		{"sdk disabled", map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318", "OTEL_SDK_DISABLED": "TRUE"}, false},
		{"exporter none", map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318", "OTEL_TRACES_EXPORTER": "none"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exportRequested(env(tt.vars)))
		})
	}
}

func TestServiceResource(t *testing.T) {
	res := serviceResource(env(nil))
	name, ok := res.Set().Value(semconv.ServiceNameKey)
	assert.True(t, ok)
	assert.Equal(t, "git-review", name.AsString())

	res = serviceResource(env(map[string]string{"OTEL_SERVICE_NAME": "ci-review"}))
	name, _ = res.Set().Value(semconv.ServiceNameKey)
	assert.Equal(t, "ci-review", name.AsString())
}

func TestToKeyValue(t *testing.T) {
	assert.Equal(t, attribute.String("k", "v"), toKeyValue("k", "v"))
	assert.Equal(t, attribute.Bool("k", true), toKeyValue("k", true))
	assert.Equal(t, attribute.Int("k", 3), toKeyValue("k", 3))
	assert.Equal(t, attribute.String("k", "[a b]"), toKeyValue("k", []string{"a", "b"}))
}
