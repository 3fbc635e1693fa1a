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

// Package logging is the leveled logger the review and signing flows write
// progress to. Records go to stderr through logrus; stdout is left to
// command results.
package logging

import (
	"fmt"
	"strings"
)

// LogLevel is the minimum severity a Logger emits.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent drops every record.
	LevelSilent
)

var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"silent":  LevelSilent,
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLogLevel maps a --log-level value to a LogLevel. Matching ignores
// case and surrounding blanks.
func ParseLogLevel(s string) (LogLevel, error) {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LogFormat selects how records are rendered.
type LogFormat int

const (
	// FormatText renders logfmt lines.
	FormatText LogFormat = iota
	// FormatJSON renders one object per line.
	FormatJSON
)

// ParseLogFormat maps a --log-format value to a LogFormat.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// Logger is what review and signing log through. Fields attach to every
// record of the returned Logger without changing the receiver.
type Logger interface {
	Debug(format string, args ...interface{})
	Debugln(msg string)
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(Options{Level: LevelSilent})
}

// EnsureLogger returns l, or a discarding Logger when l is nil. Library
// callers that pass no Logger get no output.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}
