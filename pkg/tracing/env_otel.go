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
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/release-utils/version"
)

const (
	instrumentation = "github.com/sigstore/git-review"
	attributePrefix = "git_review."
)

var provider *sdktrace.TracerProvider

// exportRequested reports whether the environment names an OTLP collector
// and does not disable the SDK.
func exportRequested(getenv func(string) string) bool {
	if strings.EqualFold(getenv("OTEL_SDK_DISABLED"), "true") || getenv("OTEL_TRACES_EXPORTER") == "none" {
		return false
	}
	return getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") != ""
}

func serviceResource(getenv func(string) string) *resource.Resource {
	name := getenv("OTEL_SERVICE_NAME")
	if name == "" {
		name = "git-review"
	}
	return resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(name),
		semconv.ServiceVersion(version.GetVersionInfo().GitVersion),
	)
}

// InitFromEnv exports spans over OTLP/HTTP when OTEL_EXPORTER_OTLP_ENDPOINT
// or OTEL_EXPORTER_OTLP_TRACES_ENDPOINT is set. The exporter reads the rest
// of its settings (headers, TLS, timeout) from the same OTEL_* variables.
func InitFromEnv() error {
	if !exportRequested(os.Getenv) {
		return nil
	}
	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		return fmt.Errorf("creating OTLP exporter: %w", err)
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(serviceResource(os.Getenv)),
	)
	otel.SetTracerProvider(provider)
	SetTracer(otelTracer{tracer: provider.Tracer(instrumentation)})
	return nil
}

// Shutdown flushes pending spans. It is safe to call when InitFromEnv
// installed nothing.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	p := provider
	provider = nil
	SetTracer(nil)
	return p.Shutdown(ctx)
}

type otelTracer struct {
	tracer trace.Tracer
}

func (t otelTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toKeyValue(attributePrefix+key, value))
}

func (s otelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) End() {
	s.span.End()
}

func toKeyValue(key string, value interface{}) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	}
	return k.String(fmt.Sprint(value))
}
