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

package config

import (
	"os"

	"github.com/sigstore/git-review/pkg/failure"
)

// PathType represents the type of path to validate.
type PathType int

const (
	// PathTypeFile expects a regular file.
	PathTypeFile PathType = iota
	// PathTypeFolder expects a directory.
	PathTypeFolder
)

// ValidatePath checks that path is set, exists and has the expected type.
// Failures are reported as failure.Configuration errors naming the field.
func ValidatePath(fieldName, path string, pathType PathType) error {
	if path == "" {
		return failure.Newf(failure.Configuration, "%s is required", fieldName)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure.Newf(failure.Configuration, "%s %q does not exist", fieldName, path)
		}
		return failure.At(failure.Configuration, path, "checking "+fieldName, err)
	}

	switch pathType {
	case PathTypeFile:
		if info.IsDir() {
			return failure.Newf(failure.Configuration, "%s %q is a directory, expected file", fieldName, path)
		}
	case PathTypeFolder:
		if !info.IsDir() {
			return failure.Newf(failure.Configuration, "%s %q is a file, expected directory", fieldName, path)
		}
	}
	return nil
}

// ValidateFileExists validates that a path exists and is a file.
func ValidateFileExists(fieldName, path string) error {
	return ValidatePath(fieldName, path, PathTypeFile)
}

// ValidateFolderExists validates that a path exists and is a directory.
func ValidateFolderExists(fieldName, path string) error {
	return ValidatePath(fieldName, path, PathTypeFolder)
}
